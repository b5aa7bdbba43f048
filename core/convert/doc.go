// Package convert translates between flat annotation sets and GrAF
// annotation graphs.
//
// Build turns a spans.Index into a graf.Graph: records sharing anchors share
// a region and a node, the reserved graf:set feature selects the annotation
// space, and graf:edge lists are resolved into edges once every record has a
// node. Flatten goes the other way, computing the span of virtual nodes from
// their descendants and clamping records to the text.
//
// Neither direction fails on a bad record. Problems with one record or node
// are collected in Diagnostics and the conversion carries on; only
// structural problems (such as an id collision) return an error. Whether a
// structural error stops a larger batch is decided by a Policy.
package convert
