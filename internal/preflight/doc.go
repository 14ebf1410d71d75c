// Package preflight provides readiness checks for the external tools, model
// file and directories whisperstudio depends on.
//
// These checks run in two contexts:
//   - The workflow runner calls CheckEngine before allocating a run, so a
//     missing binary or model fails without leaving an empty run directory.
//   - The CLI "whisperstudio status" command uses RunAll and CheckAPI to
//     display environment health.
package preflight
