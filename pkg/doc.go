// Package pkg holds the kintree libraries.
//
// kintree lays out genealogical records as a family tree: each generation
// is a horizontal row, spouses sit side by side, and orthogonal connectors
// join parents to their children.
//
// # Data Flow
//
//	family document or person store
//	         ↓
//	    [source] / [io]       load people, expand a protocol's family
//	         ↓
//	    [family]              relationship index and family groups
//	         ↓
//	    [layout]              generations, rows, connectors, re-rooting
//	         ↓
//	    [render]              SVG, PNG, JSON and Graphviz output
//
// [pipeline] runs these stages with caching ([cache]) for the CLI and the
// HTTP service ([server]). [config] reads settings files and [errors]
// defines the error codes shared by all of them.
//
// # Quick Start
//
//	doc, err := io.ImportPersons("family.json")
//	if err != nil {
//	    return err
//	}
//	res := layout.Compute(doc.People, layout.WithFocus(doc.RootID))
//	svg, err := sink.RenderSVG(res)
//
// [source]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/source
// [io]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/io
// [family]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/family
// [layout]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/layout
// [render]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/render
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/cache
// [server]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/server
// [config]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/errors
package pkg
