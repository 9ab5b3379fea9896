// Package all registers every built-in target format. Import it for
// side effects wherever the full registry is needed:
//
//	import _ "github.com/FocuswithJustin/Scriptorium/internal/emit/all"
package all

import (
	_ "github.com/FocuswithJustin/Scriptorium/internal/emit/html"
	_ "github.com/FocuswithJustin/Scriptorium/internal/emit/markdown"
	_ "github.com/FocuswithJustin/Scriptorium/internal/emit/mediawiki"
	_ "github.com/FocuswithJustin/Scriptorium/internal/emit/osis"
	_ "github.com/FocuswithJustin/Scriptorium/internal/emit/sqlite"
	_ "github.com/FocuswithJustin/Scriptorium/internal/emit/usfm"
)
