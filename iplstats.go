// Package iplstats answers natural-language questions about IPL
// ball-by-ball cricket data.
//
// Usage:
//
//	import "github.com/spektr-org/iplstats/assistant"
//
//	table, _ := dataset.Load(ctx, os.Getenv("DATABASE_URL"), dataset.Options{})
//	sch := schema.Discover(table, schema.Cricket())
//	summary := dataset.Summarize(table)
//	tr := translator.New(translator.NewGroq(cfg), *sch, &summary, 30*time.Second)
//	ans := assistant.New(table, tr, *sch, assistant.Options{}).Ask(ctx, "Top wicket takers in IPL 2024")
//
// The translator sends the schema and a dataset summary (never rows) to a
// language model and receives a QuerySpec, or a SELECT statement that is
// lowered into one. The engine evaluates the QuerySpec locally over the
// Arrow-backed table; no generated code or SQL is ever executed.
package iplstats
