// Package assistant coordinates one conversation turn across memory,
// search augmentation, completion, and optional speech.
//
// Invariants:
//   - a turn is terminal after one pass: no retries, no re-entry
//   - persisted history carries the user's original text, never the
//     search-augmented variant the model saw
//   - every completed turn is persisted, fallback replies included;
//     only a turn cut short by context cancellation is abandoned
//
// Flow:
//
//	user(text) -> [search augmentation] -> completion -> persist -> reply
package assistant
