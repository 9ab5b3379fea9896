package ref

import "strings"

// BookInfo carries the display names and canonical abbreviation for one
// internal book code.
type BookInfo struct {
	// Code is the internal three-letter code (e.g. "GEN", "EST").
	Code string

	// OSIS is the OSIS abbreviation (e.g. "Gen", "Esth").
	OSIS string

	// Name is the assumed English book name.
	Name string
}

// bookTable maps internal book codes to their OSIS abbreviations and
// assumed English names, in canonical order.
var bookTable = []BookInfo{
	{"GEN", "Gen", "Genesis"}, {"EXO", "Exod", "Exodus"}, {"LEV", "Lev", "Leviticus"},
	{"NUM", "Num", "Numbers"}, {"DEU", "Deut", "Deuteronomy"}, {"JOS", "Josh", "Joshua"},
	{"JDG", "Judg", "Judges"}, {"RUT", "Ruth", "Ruth"}, {"1SA", "1Sam", "1 Samuel"},
	{"2SA", "2Sam", "2 Samuel"}, {"1KI", "1Kgs", "1 Kings"}, {"2KI", "2Kgs", "2 Kings"},
	{"1CH", "1Chr", "1 Chronicles"}, {"2CH", "2Chr", "2 Chronicles"}, {"EZR", "Ezra", "Ezra"},
	{"NEH", "Neh", "Nehemiah"}, {"EST", "Esth", "Esther"}, {"JOB", "Job", "Job"},
	{"PSA", "Ps", "Psalms"}, {"PRO", "Prov", "Proverbs"}, {"ECC", "Eccl", "Ecclesiastes"},
	{"SNG", "Song", "Song of Solomon"}, {"ISA", "Isa", "Isaiah"}, {"JER", "Jer", "Jeremiah"},
	{"LAM", "Lam", "Lamentations"}, {"EZK", "Ezek", "Ezekiel"}, {"DAN", "Dan", "Daniel"},
	{"HOS", "Hos", "Hosea"}, {"JOL", "Joel", "Joel"}, {"AMO", "Amos", "Amos"},
	{"OBA", "Obad", "Obadiah"}, {"JON", "Jonah", "Jonah"}, {"MIC", "Mic", "Micah"},
	{"NAM", "Nah", "Nahum"}, {"HAB", "Hab", "Habakkuk"}, {"ZEP", "Zeph", "Zephaniah"},
	{"HAG", "Hag", "Haggai"}, {"ZEC", "Zech", "Zechariah"}, {"MAL", "Mal", "Malachi"},
	{"MAT", "Matt", "Matthew"}, {"MRK", "Mark", "Mark"}, {"LUK", "Luke", "Luke"},
	{"JHN", "John", "John"}, {"ACT", "Acts", "Acts"}, {"ROM", "Rom", "Romans"},
	{"1CO", "1Cor", "1 Corinthians"}, {"2CO", "2Cor", "2 Corinthians"}, {"GAL", "Gal", "Galatians"},
	{"EPH", "Eph", "Ephesians"}, {"PHP", "Phil", "Philippians"}, {"COL", "Col", "Colossians"},
	{"1TH", "1Thess", "1 Thessalonians"}, {"2TH", "2Thess", "2 Thessalonians"},
	{"1TI", "1Tim", "1 Timothy"}, {"2TI", "2Tim", "2 Timothy"}, {"TIT", "Titus", "Titus"},
	{"PHM", "Phlm", "Philemon"}, {"HEB", "Heb", "Hebrews"}, {"JAS", "Jas", "James"},
	{"1PE", "1Pet", "1 Peter"}, {"2PE", "2Pet", "2 Peter"}, {"1JN", "1John", "1 John"},
	{"2JN", "2John", "2 John"}, {"3JN", "3John", "3 John"}, {"JUD", "Jude", "Jude"},
	{"REV", "Rev", "Revelation"},
}

var (
	byCode = map[string]BookInfo{}
	byOSIS = map[string]BookInfo{}
)

func init() {
	for _, b := range bookTable {
		byCode[b.Code] = b
		byOSIS[strings.ToLower(b.OSIS)] = b
	}
}

// LookupBook returns the book info for an internal code.
func LookupBook(code string) (BookInfo, bool) {
	b, ok := byCode[strings.ToUpper(code)]
	return b, ok
}

// LookupOSIS returns the book info for an OSIS abbreviation.
func LookupOSIS(abbrev string) (BookInfo, bool) {
	b, ok := byOSIS[strings.ToLower(abbrev)]
	return b, ok
}

// OSISAbbrev returns the OSIS abbreviation for an internal book code,
// falling back to the code itself for books outside the table.
func OSISAbbrev(code string) string {
	if b, ok := LookupBook(code); ok {
		return b.OSIS
	}
	return code
}

// AssumedName returns the assumed English name for an internal book code,
// falling back to the code itself.
func AssumedName(code string) string {
	if b, ok := LookupBook(code); ok {
		return b.Name
	}
	return code
}

// Books returns the full book table in canonical order.
func Books() []BookInfo {
	out := make([]BookInfo, len(bookTable))
	copy(out, bookTable)
	return out
}

// TableResolver resolves origin tokens against the built-in book table.
// It implements Resolver for works whose note anchors are self-references
// within the book being converted.
type TableResolver struct {
	// Have reports which chapter/verse positions actually exist in the
	// loaded work; nil means every in-table reference is assumed present.
	Have func(book string, chapter, verse int) bool
}

// Resolve implements Resolver. The raw text has the vernacular book
// abbreviation already prepended by the renderer; an origin with no
// recognizable book falls back to the hint's book.
func (tr *TableResolver) Resolve(raw string, hint Location) *Ref {
	parsed, err := ParseOrigin(raw)
	if err != nil {
		return nil
	}
	if parsed.Book == "" {
		parsed.Book = OSISAbbrev(hint.Book)
	} else if b, ok := LookupOSIS(parsed.Book); ok {
		parsed.Book = b.OSIS
	} else if b, ok := LookupBook(parsed.Book); ok {
		parsed.Book = b.OSIS
	} else {
		return nil
	}
	return parsed
}

// ContainsRef implements Resolver.
func (tr *TableResolver) ContainsRef(book string, chapter, verse int) bool {
	if _, ok := LookupOSIS(book); !ok {
		if _, ok := LookupBook(book); !ok {
			return false
		}
	}
	if tr.Have != nil {
		return tr.Have(book, chapter, verse)
	}
	return chapter >= 0 && verse >= 0
}
