// Command avid is the command line interface to the automated video editor:
// it queues recordings, runs the detection and analysis pipeline, exports NLE
// timelines, and scores exported cuts against reference edits.
package main
