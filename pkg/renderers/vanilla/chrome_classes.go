package vanilla

// ChromeClass is a semantic CSS class emitted on the wizard chrome. Themes
// and custom stylesheets target these.
type ChromeClass string

const (
	ClassForm     ChromeClass = "formwizard-form"
	ClassHeader   ChromeClass = "formwizard-header"
	ClassProgress ChromeClass = "formwizard-progress"
	ClassSection  ChromeClass = "formwizard-section"
	ClassField    ChromeClass = "formwizard-field"
	ClassPreviews ChromeClass = "formwizard-previews"
	ClassActions  ChromeClass = "formwizard-actions"
	ClassErrors   ChromeClass = "formwizard-errors"
	ClassNotice   ChromeClass = "formwizard-notice"
)

func chromeClasses() map[string]string {
	return map[string]string{
		"form":     string(ClassForm),
		"header":   string(ClassHeader),
		"progress": string(ClassProgress),
		"section":  string(ClassSection),
		"field":    string(ClassField),
		"previews": string(ClassPreviews),
		"actions":  string(ClassActions),
		"errors":   string(ClassErrors),
		"notice":   string(ClassNotice),
	}
}
