// Package startpoint holds the data model of cyber-dojo start-point volumes:
// the runtime's volume record, the manifest stored inside the volume and the
// pure predicates that classify a record.
package startpoint
