// Package replace normalizes typographic artifacts in plain text.
//
// The substitutions live in two ordered tables of Rule values:
//
//   - the safe tier (quotes, dashes, ellipsis, special spaces, invisible
//     characters, bullets, arrows, check marks, entity spellings,
//     full-width forms and vulgar fractions), always applied
//   - the aggressive tier (currency, math symbols, guillemets), applied
//     only on request because it can change meaning
//
// An Engine interprets the tables in order; every rule sees the output of
// the previous one. Runs of &nbsp; entities reported by the hazard package
// are collapsed to a single entity before the tables run.
//
// # Usage
//
//	res, err := replace.Normalize("Wait… “done”", false)
//	// res.Text == `Wait... "done"`, res.Changes == 3
//
// Rules can be disabled without touching the interpreter:
//
//	engine := replace.NewEngine(replace.WithoutRules("arrow-left"))
package replace
