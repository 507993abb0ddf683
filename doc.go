/*
Package trisim provides a discrete-event simulation engine for digital logic
networks evaluated under tri-state logic (True, False and Unknown).

A Network is a graph of nodes (inputs, outputs, buffers and logic gates).
Changes are propagated one tick at a time by Network.Next until the network
settles. Nodes flagged with ForceContinue have their successors resolved in
the same tick, which lets flattened sub-circuits settle atomically while
ordinary gate fan-out advances one logical generation per tick.

The sim package builds networks from item/port/connection descriptors and
adds clocks, waveform recording and step debugging on top of the engine.

*/
package trisim
