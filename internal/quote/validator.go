package quote

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	nameMaxLen    = 100
	cityMaxLen    = 100
	emailMaxLen   = 254
	messageMinLen = 10
	messageMaxLen = 2000
)

var (
	// Local part: letters/digits/._+-; domain: letters/digits/.-; TLD >= 2 letters.
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

	// French numbers: 0, +33 or 0033 prefix, then a 9-digit national number,
	// trailing digits optionally grouped in pairs by spaces, dots or dashes.
	phoneRegex = regexp.MustCompile(`^(?:\+33|0033|0)\s?[1-9](?:[\s.\-]?\d{2}){4}$`)

	postalCodeRegex = regexp.MustCompile(`^\d{5}$`)
)

// Validate checks every field of a quote request and collects one message per
// violated rule. It never short-circuits and has no side effects. The messages
// are the user-facing French sentences returned in the 400 response.
func Validate(q *QuoteRequest) Result {
	if q == nil {
		return Result{Valid: false, Errors: []string{"La demande est vide"}}
	}

	var errs []string

	if utf8.RuneCountInString(strings.TrimSpace(q.Name)) < 2 || utf8.RuneCountInString(q.Name) > nameMaxLen {
		errs = append(errs, "Le nom doit contenir entre 2 et 100 caractères")
	}

	email := strings.ToLower(strings.TrimSpace(q.Email))
	if !emailRegex.MatchString(email) || utf8.RuneCountInString(email) > emailMaxLen {
		errs = append(errs, "L'adresse email est invalide")
	}

	if !phoneRegex.MatchString(strings.TrimSpace(q.Phone)) {
		errs = append(errs, "Le numéro de téléphone est invalide")
	}

	if utf8.RuneCountInString(q.City) > cityMaxLen {
		errs = append(errs, "La ville ne doit pas dépasser 100 caractères")
	}

	if !q.ProjectType.Valid() {
		errs = append(errs, "Le type de projet est invalide")
	}

	trimmedMsg := strings.TrimSpace(q.Message)
	if utf8.RuneCountInString(trimmedMsg) < messageMinLen || utf8.RuneCountInString(q.Message) > messageMaxLen {
		errs = append(errs, "Le message doit contenir entre 10 et 2000 caractères")
	}

	if q.Wizard != nil {
		errs = append(errs, validateWizard(q.Wizard)...)
	}

	return Result{Valid: len(errs) == 0, Errors: emptyIfNil(errs)}
}

// validateWizard checks each populated wizard field against its enumeration.
// Absent fields are fine: the wizard is filled in incrementally.
func validateWizard(w *WizardData) []string {
	var errs []string

	if w.ServiceType != "" && !w.ServiceType.Valid() {
		errs = append(errs, "Le type de prestation est invalide")
	}
	if w.PoolType != "" && !w.PoolType.Valid() {
		errs = append(errs, "Le type de piscine est invalide")
	}
	if w.Dimensions != "" && !w.Dimensions.Valid() {
		errs = append(errs, "La dimension sélectionnée est invalide")
	}
	if w.Terrain != "" && !w.Terrain.Valid() {
		errs = append(errs, "Le type de terrain est invalide")
	}
	if w.Budget != "" && !w.Budget.Valid() {
		errs = append(errs, "La fourchette de budget est invalide")
	}
	if w.Timeline != "" && !w.Timeline.Valid() {
		errs = append(errs, "Le délai souhaité est invalide")
	}
	if w.PostalCode != "" && !postalCodeRegex.MatchString(w.PostalCode) {
		errs = append(errs, "Le code postal doit contenir 5 chiffres")
	}

	return errs
}

func emptyIfNil(errs []string) []string {
	if errs == nil {
		return []string{}
	}
	return errs
}
