// Package markdown tokenizes tutorial documents.
//
// A tutorial is ordinary markdown in which some lines carry directives:
//
//	<!-- @hutt_bash cmd='make -j $NP' timeout=600 -->
//
//	```bash @hutt_bash
//	cd build
//	ctest
//	```
//
// The tokenizer keeps headings (for progress output) and directives, and
// drops all other prose. Each token remembers the file and line it came from
// so later phases can report errors against the document.
package markdown
