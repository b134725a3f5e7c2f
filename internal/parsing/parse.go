package parsing

// ParseFile routes fc to the registered LanguageParser for its extension.
// This is the single entry point PARSE-stage workers call; it is pure and
// safe to call concurrently given a shared, already-populated Registry.
func ParseFile(reg *Registry, fc FileContent) (ParsedFile, error) {
	p, err := reg.ParserFor(fc.Path)
	if err != nil {
		return ParsedFile{}, err
	}
	return p.ParseFile(fc)
}
