package anchor

// Keyword vocabulary for locating signature fields. The lists are
// Portuguese-first with English equivalents, matching the contracts this
// tool is pointed at. Matching is case-insensitive and substring-based: a
// keyword matches a text item when the item's trimmed lowercase text equals
// the keyword or contains it. Custom keywords registered through the store
// are unioned with the defaults at detection time.

// DefaultKeywords are the built-in search terms. Underscore runs stand in
// for printed signature lines.
var DefaultKeywords = []string{
	// Portuguese - common
	"assinatura",
	"assinar",
	"assinado",
	"assine",
	"responsável",
	"testemunha",
	"declarante",
	"contratante",
	"contratado",
	"locador",
	"locatário",
	"signatário",
	"de acordo",

	// Portuguese - roles
	"diretor",
	"gerente",
	"coordenador",
	"supervisor",
	"representante",
	"procurador",

	// Portuguese - actions
	"autorizado",
	"aprovado",
	"validado",
	"confirmado",

	// Common signature lines
	"___________________",
	"__________________",
	"_________________",
	"________________",
	"______",
	"_____",

	// English
	"signature",
	"sign here",
	"signed by",
	"authorized by",
	"approved by",
	"signed",
	"signer",
	"authorized",
	"approved",
}

// highPriorityKeywords strongly indicate a true signature field and carry a
// large scoring bonus.
var highPriorityKeywords = map[string]bool{
	"assinaturas:":        true,
	"assinatura:":         true,
	"assine aqui":         true,
	"sign here":           true,
	"signature:":          true,
	"signatures:":         true,
	"___________________": true,
	"__________________":  true,
	"_________________":   true,
}

// falsePositiveKeywords resemble signature fields but label contractual
// parties; they sit right above real fields often enough that matching them
// is common, so they carry a heavy penalty instead of being excluded.
var falsePositiveKeywords = []string{
	"contratada:",
	"contratante:",
	"contratado:",
	"locador:",
	"locatário:",
}

// isFalsePositiveExact reports whether text is itself one of the
// false-positive labels.
func isFalsePositiveExact(text string) bool {
	for _, fp := range falsePositiveKeywords {
		if text == fp {
			return true
		}
	}
	return false
}
