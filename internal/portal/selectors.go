package portal

import "strings"

// Selectors locate the portal controls. CSS selectors unless the field
// name says XPath.
type Selectors struct {
	// URL is the search page address.
	URL string `yaml:"url"`

	SearchInput   string `yaml:"search_input"`
	CaptchaImage  string `yaml:"captcha_image"`
	CaptchaInput  string `yaml:"captcha_input"`
	CaptchaSubmit string `yaml:"captcha_submit"`

	// CaptchaErrorXPath matches the incorrect/retry message.
	CaptchaErrorXPath string `yaml:"captcha_error_xpath"`

	ResultsTable string `yaml:"results_table"`

	// LinkXPath locates the detail link; %s is replaced with the quoted
	// identifier.
	LinkXPath string `yaml:"link_xpath"`

	// LinkCandidates selects every element the text-match fallback compares.
	LinkCandidates string `yaml:"link_candidates"`

	ExportButtonXPath string `yaml:"export_button_xpath"`
	ExportAllXPath    string `yaml:"export_all_xpath"`
}

// DefaultSelectors returns the selectors of the MCA master data page.
func DefaultSelectors() Selectors {
	return Selectors{
		URL:               "https://mca.gov.in/content/mca/global/en/mca/master-data/MDS.html",
		SearchInput:       "input[placeholder*='CIN']",
		CaptchaImage:      "img[alt='captcha']",
		CaptchaInput:      "#customCaptchaInput",
		CaptchaSubmit:     "#check",
		CaptchaErrorXPath: "//*[contains(text(), 'incorrect') or contains(text(), 'retry')]",
		ResultsTable:      "table",
		LinkXPath:         "//u[contains(@class, 'company-id') and normalize-space(text())=%s]",
		LinkCandidates:    "u.company-id",
		ExportButtonXPath: "//button[contains(., 'Export')]",
		ExportAllXPath:    "//a[contains(text(), 'Export All Tabs(Excel)')]",
	}
}

// Merge returns s with empty fields taken from defaults.
func (s Selectors) Merge(defaults Selectors) Selectors {
	pick := func(v, d string) string {
		if strings.TrimSpace(v) == "" {
			return d
		}
		return v
	}
	return Selectors{
		URL:               pick(s.URL, defaults.URL),
		SearchInput:       pick(s.SearchInput, defaults.SearchInput),
		CaptchaImage:      pick(s.CaptchaImage, defaults.CaptchaImage),
		CaptchaInput:      pick(s.CaptchaInput, defaults.CaptchaInput),
		CaptchaSubmit:     pick(s.CaptchaSubmit, defaults.CaptchaSubmit),
		CaptchaErrorXPath: pick(s.CaptchaErrorXPath, defaults.CaptchaErrorXPath),
		ResultsTable:      pick(s.ResultsTable, defaults.ResultsTable),
		LinkXPath:         pick(s.LinkXPath, defaults.LinkXPath),
		LinkCandidates:    pick(s.LinkCandidates, defaults.LinkCandidates),
		ExportButtonXPath: pick(s.ExportButtonXPath, defaults.ExportButtonXPath),
		ExportAllXPath:    pick(s.ExportAllXPath, defaults.ExportAllXPath),
	}
}

// LinkXPathFor returns LinkXPath with its first %s replaced by the quoted
// identifier. The rest of the expression is taken literally, so other %
// sequences pass through and a template without %s is returned unchanged.
func (s Selectors) LinkXPathFor(identifier string) string {
	return strings.Replace(s.LinkXPath, "%s", XPathLiteral(identifier), 1)
}

// XPathLiteral quotes v as an XPath 1.0 string literal. XPath has no escape
// sequences, so a value holding both quote kinds is built with concat().
func XPathLiteral(v string) string {
	if !strings.Contains(v, "'") {
		return "'" + v + "'"
	}
	if !strings.Contains(v, `"`) {
		return `"` + v + `"`
	}
	parts := strings.Split(v, "'")
	quoted := make([]string, 0, 2*len(parts)-1)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		quoted = append(quoted, "'"+p+"'")
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}

// NormalizeText collapses runs of whitespace and trims, like XPath
// normalize-space().
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
