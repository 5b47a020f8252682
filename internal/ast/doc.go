// Package ast defines the syntax tree shared by every stage of the
// pipeline.
//
// The node families are closed sums dispatched by type switch:
//
//   - [Expr]: numeric/string literals, variable refs, negation, binary
//     ops, builtin calls, user calls
//   - [Stmt]: lets, bare calls, returns, entity declarations, if/for/match
//   - [ForceKind], [DetectorKind], [LoopKind], [Observable], [Condition]:
//     the declaration payload variants
//
// A [Program] is produced once by the parser, extended in place by
// elaboration (entities are only ever appended), and then read-only for
// the runtime builder.
package ast
