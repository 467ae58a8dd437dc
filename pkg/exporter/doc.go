// Package exporter runs one export of the logged-in user's following list.
//
// A run resolves the user, walks every page of the followings endpoint,
// optionally enriches each account with per-account counters, renders the
// searchable HTML document and saves it to the output directory:
//
//	exp, err := exporter.New(cfg, exporter.Options{Sink: ui.NewProgressDisplay(nil)})
//	if err != nil {
//	    return err
//	}
//	summary, err := exp.Run(ctx)
//
// Identity and pagination failures end the run and are reported once
// through the sink. Enrichment failures only drop the affected fields.
package exporter
