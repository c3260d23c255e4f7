// Package moderation implements the dictionary change workflow.
//
// Editors submit words, which land as staged entries grouped under a change
// request. A moderator then accepts (staged -> published) or rejects
// (staged -> rejected) each entry. Both decisions are terminal, and every
// transition is a compare-and-set in the store, so two concurrent decisions on
// the same entry can never both succeed.
package moderation
