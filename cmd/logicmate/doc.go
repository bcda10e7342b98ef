// Command logicmate is the CLI for the dataset-to-filter pipeline: fetch a
// labeled dataset export, prepare its manifest, fine-tune a detection
// model, bind it to a subject, and filter image directories with it.
package main
