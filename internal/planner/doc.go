// Package planner turns an effective Options snapshot and the codec's
// capabilities into a Plan: which stages do real work, the encode options
// each re-serializing stage requests, and the capability gaps to report.
package planner
