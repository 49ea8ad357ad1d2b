package cron

import "sort"

// keywordEntry pairs a reminder keyword (pt-PT, pt-BR, es, en) with its
// 2-3 letter abbreviation, used to derive a friendly job-id prefix.
type keywordEntry struct {
	Keyword string
	Abbr    string
}

// keywordAbbr is sorted longest-keyword-first so the longest match wins.
// This is a curated subset spanning four locales and the common reminder
// categories (medication, water/meals, appointments, bills, exercise,
// study, work, travel).
var keywordAbbr = buildKeywordAbbr()

func buildKeywordAbbr() []keywordEntry {
	entries := []keywordEntry{
		{"remedio", "RM"}, {"remédio", "RM"}, {"medicamento", "RM"}, {"medicina", "RM"},
		{"medicacion", "RM"}, {"medicación", "RM"}, {"pill", "RM"}, {"medicine", "RM"},
		{"agua", "AG"}, {"água", "AG"}, {"beber agua", "AG"}, {"water", "AG"},
		{"reuniao", "RE"}, {"reunião", "RE"}, {"reunion", "RE"}, {"reunión", "RE"}, {"meeting", "RE"},
		{"consulta", "CO"}, {"appointment", "CO"}, {"medico", "CO"}, {"médico", "CO"}, {"doctor", "CO"},
		{"conta", "CT"}, {"fatura", "CT"}, {"bill", "CT"}, {"factura", "CT"}, {"pagar", "CT"},
		{"exercicio", "EX"}, {"exercício", "EX"}, {"ejercicio", "EX"}, {"exercise", "EX"}, {"gym", "EX"}, {"ginasio", "EX"}, {"ginásio", "EX"},
		{"estudar", "ST"}, {"estudo", "ST"}, {"estudio", "ST"}, {"study", "ST"},
		{"trabalho", "TR"}, {"trabajo", "TR"}, {"work", "TR"}, {"job", "TR"},
		{"aniversario", "AN"}, {"aniversário", "AN"}, {"cumpleanos", "AN"}, {"cumpleaños", "AN"}, {"birthday", "AN"},
		{"voo", "VO"}, {"vuelo", "VO"}, {"flight", "VO"},
		{"filme", "FI"}, {"pelicula", "FI"}, {"película", "FI"}, {"movie", "FI"},
		{"almoco", "CM"}, {"almoço", "CM"}, {"jantar", "CM"}, {"comida", "CM"}, {"lunch", "CM"}, {"dinner", "CM"},
		{"viagem", "VI"}, {"viaje", "VI"}, {"trip", "VI"}, {"travel", "VI"},
		{"renovar", "RN"}, {"renew", "RN"}, {"renovacion", "RN"}, {"renovación", "RN"},
		{"pagamento", "PG"}, {"payment", "PG"}, {"pago", "PG"},
		{"dentista", "DE"}, {"dentist", "DE"},
		{"carro", "CR"}, {"coche", "CR"}, {"car", "CR"},
		{"chamada", "CH"}, {"llamada", "CH"}, {"call", "CH"},
		{"mercado", "LS"}, {"compras", "LS"}, {"shopping", "LS"}, {"lista", "LS"}, {"list", "LS"},
		{"evento", "EV"}, {"event", "EV"},
		{"vacina", "VC"}, {"vacuna", "VC"}, {"vaccine", "VC"},
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return len(entries[i].Keyword) > len(entries[j].Keyword)
	})
	return entries
}
