// Package i18n holds the user-facing message catalog and picks the caller's language.
package i18n

import (
	"net/http"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// LangParam is the query parameter that overrides Accept-Language.
const LangParam = "lang"

var supported = []language.Tag{
	language.English,
	language.Italian,
}

var matcher = language.NewMatcher(supported)

var catalog = map[string][2]string{
	"validation.request_type":           {`Request type must be "tour" or "cruise".`, `Il tipo di richiesta deve essere "tour" o "cruise".`},
	"validation.tour_required":          {"Select a tour.", "Seleziona un tour."},
	"validation.cruise_required":        {"Select a cruise.", "Seleziona una crociera."},
	"validation.subject_invalid":        {"The selected item is not valid.", "L'elemento selezionato non è valido."},
	"validation.departure_required":     {"Select a departure date.", "Seleziona una data di partenza."},
	"validation.departure_invalid":      {"The selected departure is not valid.", "La partenza selezionata non è valida."},
	"validation.departure_mismatch":     {"The selected departure does not belong to this item.", "La partenza selezionata non appartiene a questo elemento."},
	"validation.adults_min":             {"At least one adult is required.", "È richiesto almeno un adulto."},
	"validation.children_min":           {"The number of children cannot be negative.", "Il numero di bambini non può essere negativo."},
	"validation.cabins_min":             {"At least one cabin is required.", "È richiesta almeno una cabina."},
	"validation.cabin_invalid":          {"The selected cabin is not valid.", "La cabina selezionata non è valida."},
	"validation.notes_too_long":         {"Notes cannot exceed %d characters.", "Le note non possono superare %d caratteri."},
	"validation.extras_too_many":        {"No more than %d extras can be requested.", "Non è possibile richiedere più di %d extra."},
	"validation.extra_blank":            {"Extras cannot be empty.", "Gli extra non possono essere vuoti."},
	"validation.preview_price_negative": {"The preview price cannot be negative.", "Il prezzo indicativo non può essere negativo."},
	"validation.offer_price_negative":   {"The offer price cannot be negative.", "Il prezzo dell'offerta non può essere negativo."},
	"quote.no_agency":                   {"No agency is registered for this account.", "Nessuna agenzia è registrata per questo account."},
	"quote.agency_not_active":           {"Your agency has not been activated yet.", "La tua agenzia non è ancora stata attivata."},
	"quote.create_failed":               {"The quote request could not be saved. Please try again.", "Non è stato possibile salvare la richiesta di preventivo. Riprova."},
	"quote.update_failed":               {"The quote request could not be updated. Please try again.", "Non è stato possibile aggiornare la richiesta di preventivo. Riprova."},
	"quote.not_found":                   {"Quote request not found.", "Richiesta di preventivo non trovata."},
	"quote.forbidden":                   {"You are not allowed to perform this action.", "Non sei autorizzato a eseguire questa azione."},
	"quote.invalid_transition":          {"Cannot transition from %s to %s as %s.", "Impossibile passare da %s a %s come %s."},
	"attachment.kind_invalid":           {"Unknown document type.", "Tipo di documento sconosciuto."},
	"attachment.file_invalid":           {"Only PDF, JPEG or PNG files are accepted.", "Sono accettati solo file PDF, JPEG o PNG."},
	"attachment.missing":                {"The file has not been uploaded yet.", "Il file non è ancora stato caricato."},
	"attachment.not_found":              {"Document not found.", "Documento non trovato."},
	"storage.unavailable":               {"Document storage is not available.", "L'archivio documenti non è disponibile."},
}

func init() {
	for key, msgs := range catalog {
		for i, tag := range supported {
			if err := message.SetString(tag, key, msgs[i]); err != nil {
				panic(err)
			}
		}
	}
}

// Default returns the fallback language.
func Default() language.Tag {
	return supported[0]
}

// Match picks the best supported tag for a raw language preference list.
func Match(accept string) language.Tag {
	accept = strings.TrimSpace(accept)
	if accept == "" {
		return Default()
	}
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return Default()
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Default()
	}
	return supported[idx]
}

// FromRequest resolves the caller's language from ?lang= or Accept-Language.
func FromRequest(r *http.Request) language.Tag {
	if r == nil {
		return Default()
	}
	if lang := r.URL.Query().Get(LangParam); lang != "" {
		return Match(lang)
	}
	return Match(r.Header.Get("Accept-Language"))
}

// Printer returns a message printer for the caller's language.
func Printer(r *http.Request) *message.Printer {
	return message.NewPrinter(FromRequest(r))
}

// English returns the printer used for log lines and error strings.
func English() *message.Printer {
	return message.NewPrinter(Default())
}

// Localizable is implemented by errors whose user-facing text comes from the catalog.
type Localizable interface {
	MessageKey() (string, []any)
}

// Message renders a catalog key with args in p's language.
func Message(p *message.Printer, key string, args ...any) string {
	return p.Sprintf(key, args...)
}
