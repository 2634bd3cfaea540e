package mailer

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"quote-api/internal/quote"
)

// The renderer builds both email bodies from SanitizedQuote fields and the
// enum label tables only. Raw request fields never reach this file.

const brandName = "Piscines Azur Sud"

// NewRequestID builds a human-readable reference from the current timestamp
// and a short random suffix. It is for cross-referencing the two emails, not
// a lookup key.
func NewRequestID(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("DEVIS-%s-%s", now.Format("20060102-150405"), suffix)
}

// RenderOperatorEmail builds the internal notification. Reply-to is the
// submitter so the team answers with one click; the subject carries an
// urgency flag when the wizard timeline asks for an immediate start.
func RenderOperatorEmail(q *quote.SanitizedQuote, requestID, from, to string) *Email {
	subject := fmt.Sprintf("Nouvelle demande de devis - %s", q.Name)
	if q.Wizard != nil && q.Wizard.Timeline == quote.TimelineUrgent {
		subject = "[URGENT] " + subject
	}

	var b strings.Builder
	b.WriteString("<html><body style=\"font-family: Arial, sans-serif; color: #1a2e44;\">")
	b.WriteString(fmt.Sprintf("<h2>Nouvelle demande de devis (%s)</h2>", requestID))
	b.WriteString("<h3>Coordonnées</h3><ul>")
	b.WriteString(fmt.Sprintf("<li><strong>Nom :</strong> %s</li>", q.Name))
	b.WriteString(fmt.Sprintf("<li><strong>Email :</strong> %s</li>", q.Email))
	b.WriteString(fmt.Sprintf("<li><strong>Téléphone :</strong> %s</li>", q.Phone))
	if q.City != "" {
		b.WriteString(fmt.Sprintf("<li><strong>Ville :</strong> %s</li>", q.City))
	}
	b.WriteString(fmt.Sprintf("<li><strong>Type de projet :</strong> %s</li>", q.ProjectType.Label()))
	b.WriteString("</ul>")

	if summary := projectSummary(q.Wizard); summary != "" {
		b.WriteString("<h3>Projet configuré</h3><ul>")
		b.WriteString(summary)
		b.WriteString("</ul>")
	}

	b.WriteString("<h3>Message</h3>")
	b.WriteString(fmt.Sprintf("<p>%s</p>", q.Message))
	b.WriteString("</body></html>")

	return &Email{
		From:    fmt.Sprintf("%s <%s>", brandName, from),
		To:      to,
		ReplyTo: q.Email,
		Subject: subject,
		HTML:    b.String(),
	}
}

// RenderCustomerEmail builds the acknowledgment sent back to the submitter.
// Reply-to is the configured contact address.
func RenderCustomerEmail(q *quote.SanitizedQuote, requestID, from, contact string) *Email {
	var b strings.Builder
	b.WriteString("<html><body style=\"font-family: Arial, sans-serif; color: #1a2e44;\">")
	b.WriteString(fmt.Sprintf("<h2>Merci pour votre demande, %s</h2>", q.Name))
	b.WriteString(fmt.Sprintf(
		"<p>Nous avons bien reçu votre demande de devis (référence %s). "+
			"Un membre de notre équipe vous recontactera sous 24 heures ouvrées.</p>", requestID))

	if summary := projectSummary(q.Wizard); summary != "" {
		b.WriteString("<h3>Récapitulatif de votre projet</h3><ul>")
		b.WriteString(summary)
		b.WriteString("</ul>")
	}

	b.WriteString("<p>À très bientôt,<br>L'équipe " + brandName + "</p>")
	b.WriteString("</body></html>")

	return &Email{
		From:    fmt.Sprintf("%s <%s>", brandName, from),
		To:      q.Email,
		ReplyTo: contact,
		Subject: fmt.Sprintf("Votre demande de devis - %s", brandName),
		HTML:    b.String(),
	}
}

// projectSummary renders the wizard answers as list items, mapping each enum
// to its display label. Absent fields are omitted rather than rendered as
// placeholders.
func projectSummary(w *quote.WizardData) string {
	if w == nil {
		return ""
	}

	var b strings.Builder
	row := func(label, value string) {
		if value != "" {
			b.WriteString(fmt.Sprintf("<li><strong>%s :</strong> %s</li>", label, value))
		}
	}

	if w.ServiceType != "" {
		row("Prestation", w.ServiceType.Label())
	}
	if w.PoolType != "" {
		row("Type de piscine", w.PoolType.Label())
	}
	if w.Dimensions != "" {
		row("Dimensions", w.Dimensions.Label())
	}
	if w.Terrain != "" {
		row("Terrain", w.Terrain.Label())
	}
	if w.Budget != "" {
		row("Budget", w.Budget.Label())
	}
	if w.Timeline != "" {
		row("Délai", w.Timeline.Label())
	}
	if w.PostalCode != "" {
		row("Code postal", w.PostalCode)
	}

	return b.String()
}
