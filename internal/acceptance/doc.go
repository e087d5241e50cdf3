// Package acceptance drives the to-do application the way a visitor does.
//
// A [Visitor] pairs a headless [browser.Browser] with a [wait.Waiter]. Page
// assertions that depend on a request having completed are expressed as
// checks that return [wait.Pending] until the expected row shows up, so the
// same scenarios run against an in-process test server and a live
// deployment.
//
// Two scenarios are provided:
//
//   - [NewVisitorScenario] starts a list from the home page and keeps adding
//     items, checking the numbered rows after every submission.
//   - [IsolationScenario] has two independent visitors each start a list and
//     checks that neither sees the other's items.
//
// [Runner] runs both with fresh browser sessions. It backs the end-to-end
// tests and the "smoke" CLI command.
package acceptance
