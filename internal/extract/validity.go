package extract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/maltedev/amazon-piracy-detector/internal/models"
)

// DefaultChromePhrases are marketplace interface texts that are never product titles.
var DefaultChromePhrases = []string{
	"Consulte as páginas dos produtos para ver outras opções de compra",
	"Consulte as páginas dos produtos para ver",
	"Ver outras opções de compra",
	"Outras opções de compra",
	"Ver mais opções",
	"Mais opções",
	"Ver produtos similares",
	"Produtos similares",
	"Ver ofertas",
	"Ofertas disponíveis",
	"Ver detalhes",
	"Detalhes do produto",
	"Ver informações",
	"Informações do produto",
	"Pesquisas relacionadas",
	"Patrocinado",
	"Impressoras e Acessórios",
	"Anterior",
	"Próximo",
	"Escolha da Amazon",
	"Mais vendidos",
	"Departamentos",
	"Categoria",
}

var chromePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^anterior\d+próximo$`),
	regexp.MustCompile(`^pesquisas\s+relacionadas$`),
	regexp.MustCompile(`^patrocinado$`),
	regexp.MustCompile(`^impressoras\s+e\s+acessórios$`),
}

// ProductFilter decides whether an extracted title belongs to a real product.
type ProductFilter struct {
	phrases []string
}

func NewProductFilter(phrases []string) *ProductFilter {
	if len(phrases) == 0 {
		phrases = DefaultChromePhrases
	}
	lowered := make([]string, 0, len(phrases))
	for _, p := range phrases {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			lowered = append(lowered, p)
		}
	}
	return &ProductFilter{phrases: lowered}
}

func (f *ProductFilter) IsValidProduct(title string) bool {
	title = strings.TrimSpace(title)
	if title == "" || title == models.TitleUnavailable {
		return false
	}

	lower := strings.ToLower(title)
	for _, p := range f.phrases {
		if strings.Contains(lower, p) {
			return false
		}
	}
	for _, re := range chromePatterns {
		if re.MatchString(lower) {
			return false
		}
	}

	length := utf8.RuneCountInString(title)
	if length < 10 {
		return false
	}

	if length < 20 && !alphanumeric(strings.NewReplacer(" ", "", "-", "", "_", "").Replace(title)) {
		return false
	}

	return true
}

func alphanumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsNumber(r) {
			return false
		}
	}
	return true
}
