// Package proto defines the data exchanged between the pipeline stages:
// the requirements, the file inventory, and the verdicts, plans and
// execution results that flow from one stage to the next.
package proto
