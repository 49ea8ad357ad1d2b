package user

import "strings"

// Supported languages.
const (
	LangPtBR = "pt-BR"
	LangPtPT = "pt-PT"
	LangES   = "es"
	LangEN   = "en"
)

// phonePrefixLanguage maps a leading country-calling-code digit sequence to
// its default language. The first matching prefix wins; no prefix here is a
// prefix of another, so the order does not change the result.
var phonePrefixLanguage = []struct {
	prefix string
	lang   string
}{
	{"55", LangPtBR},
	{"351", LangPtPT},
	{"34", LangES},
	{"52", LangES},
	{"54", LangES},
	{"57", LangES},
	{"56", LangES},
	{"51", LangES},
	{"1", LangEN},
	{"44", LangEN},
}

// ResolveLanguage implements the deterministic fallback chain:
// user override -> phone-prefix default -> "en".
func ResolveLanguage(override, phoneDigits string) string {
	switch override {
	case LangPtBR, LangPtPT, LangES, LangEN:
		return override
	}
	digits := strings.TrimPrefix(strings.TrimSpace(phoneDigits), "+")
	for _, e := range phonePrefixLanguage {
		if strings.HasPrefix(digits, e.prefix) {
			return e.lang
		}
	}
	return LangEN
}

// MessageKey names a localized string shared by the agent loop, channel
// adapter, and admin pipeline.
type MessageKey string

const (
	MsgRateLimited      MessageKey = "rate_limited"
	MsgOutOfScope       MessageKey = "out_of_scope"
	MsgDegraded         MessageKey = "degraded"
	MsgNotAllowed       MessageKey = "not_allowed"
	MsgGenericError     MessageKey = "generic_error"
	MsgGodModeMenu      MessageKey = "god_mode_menu"
	MsgGodModeQuit      MessageKey = "god_mode_quit"
	MsgRestartConfirm1  MessageKey = "restart_confirm_1"
	MsgRestartConfirm2  MessageKey = "restart_confirm_2"
	MsgRestartCancelled MessageKey = "restart_cancelled"
	MsgReactionConfirm  MessageKey = "reaction_confirm"
	MsgSnoozed          MessageKey = "snoozed"
	MsgSnoozeMaxed      MessageKey = "snooze_maxed"
	MsgVoiceFailed      MessageKey = "voice_failed"
	MsgICSSummary       MessageKey = "ics_summary"
	MsgVagueTime        MessageKey = "vague_time"
	MsgListOrEvents     MessageKey = "list_or_events"
)

var catalog = map[MessageKey]map[string]string{
	MsgRateLimited: {
		LangPtBR: "Você está enviando mensagens rápido demais, espera um pouco 🙏",
		LangPtPT: "Estás a enviar mensagens demasiado depressa, aguarda um pouco 🙏",
		LangES:   "Estás enviando mensajes demasiado rápido, espera un momento 🙏",
		LangEN:   "You're sending messages too fast, please slow down a bit 🙏",
	},
	MsgOutOfScope: {
		LangPtBR: "Eu só consigo ajudar com lembretes, listas e eventos por aqui 😉",
		LangPtPT: "Só consigo ajudar com lembretes, listas e eventos por aqui 😉",
		LangES:   "Solo puedo ayudarte con recordatorios, listas y eventos aquí 😉",
		LangEN:   "I can only help with reminders, lists, and events here 😉",
	},
	MsgDegraded: {
		LangPtBR: "Estou com dificuldades agora. Tenta usar /lembrete, /list ou /feito.",
		LangPtPT: "Estou com dificuldades agora. Tenta usar /lembrete, /list ou /feito.",
		LangES:   "Tengo dificultades ahora mismo. Intenta usar /lembrete, /list o /feito.",
		LangEN:   "I'm having trouble right now. Try /lembrete, /list, or /feito instead.",
	},
	MsgNotAllowed: {
		LangPtBR: "Esse número não tem acesso a este assistente.",
		LangPtPT: "Esse número não tem acesso a este assistente.",
		LangES:   "Ese número no tiene acceso a este asistente.",
		LangEN:   "This number doesn't have access to this assistant.",
	},
	MsgGenericError: {
		LangPtBR: "Desculpa, algo deu errado aqui do meu lado.",
		LangPtPT: "Desculpa, algo correu mal deste lado.",
		LangES:   "Disculpa, algo salió mal de mi lado.",
		LangEN:   "Sorry, something went wrong on my end.",
	},
	MsgGodModeMenu: {
		LangPtBR: "God-mode ativo. Comandos: #mute <n> <nivel>, #stats, #quit",
		LangPtPT: "God-mode ativo. Comandos: #mute <n> <nivel>, #stats, #quit",
		LangES:   "Modo dios activo. Comandos: #mute <n> <nivel>, #stats, #quit",
		LangEN:   "God-mode active. Commands: #mute <n> <level>, #stats, #quit",
	},
	MsgGodModeQuit: {
		LangPtBR: "God-mode desativado.",
		LangPtPT: "God-mode desativado.",
		LangES:   "Modo dios desactivado.",
		LangEN:   "God-mode deactivated.",
	},
	MsgRestartConfirm1: {
		LangPtBR: "Confirma que queres reiniciar o assistente? (sim/não)",
		LangPtPT: "Confirmas que queres reiniciar o assistente? (sim/não)",
		LangES:   "¿Confirmas que quieres reiniciar el asistente? (sí/no)",
		LangEN:   "Confirm you want to restart the assistant? (yes/no)",
	},
	MsgRestartConfirm2: {
		LangPtBR: "Tens a certeza mesmo? Essa é a última confirmação. (sim/não)",
		LangPtPT: "Tens mesmo a certeza? Esta é a última confirmação. (sim/não)",
		LangES:   "¿De verdad estás seguro? Esta es la última confirmación. (sí/no)",
		LangEN:   "Are you really sure? This is the final confirmation. (yes/no)",
	},
	MsgRestartCancelled: {
		LangPtBR: "Reinício cancelado.",
		LangPtPT: "Reinício cancelado.",
		LangES:   "Reinicio cancelado.",
		LangEN:   "Restart cancelled.",
	},
	MsgReactionConfirm: {
		LangPtBR: "Confirmas que terminaste isso? (sim/não)",
		LangPtPT: "Confirmas que terminaste isso? (sim/não)",
		LangES:   "¿Confirmas que terminaste esto? (sí/no)",
		LangEN:   "Confirm you're done with this? (yes/no)",
	},
	MsgSnoozed: {
		LangPtBR: "Combinado, aviso de novo em 5 minutos ⏰",
		LangPtPT: "Combinado, aviso de novo daqui a 5 minutos ⏰",
		LangES:   "Listo, te aviso de nuevo en 5 minutos ⏰",
		LangEN:   "Got it, I'll remind you again in 5 minutes ⏰",
	},
	MsgSnoozeMaxed: {
		LangPtBR: "Já adiei esse lembrete o máximo de vezes possível.",
		LangPtPT: "Já adiei esse lembrete o máximo de vezes possível.",
		LangES:   "Ya pospuse ese recordatorio el máximo de veces posible.",
		LangEN:   "I've already snoozed that reminder the maximum number of times.",
	},
	MsgVoiceFailed: {
		LangPtBR: "Não consegui entender o áudio, tenta escrever por texto.",
		LangPtPT: "Não consegui perceber o áudio, tenta escrever por texto.",
		LangES:   "No pude entender el audio, intenta escribir el mensaje.",
		LangEN:   "I couldn't understand the audio, please try typing instead.",
	},
	MsgICSSummary: {
		LangPtBR: "Adicionei %d evento(s) do calendário com lembrete prévio.",
		LangPtPT: "Adicionei %d evento(s) do calendário com lembrete prévio.",
		LangES:   "Agregué %d evento(s) del calendario con recordatorio previo.",
		LangEN:   "I added %d calendar event(s) with a lead reminder.",
	},
	MsgVagueTime: {
		LangPtBR: "Para quando é esse lembrete? Me diz um horário, tipo \"em 30 min\" ou \"às 9:00\".",
		LangPtPT: "Para quando é esse lembrete? Diz-me uma hora, tipo \"em 30 min\" ou \"às 9:00\".",
		LangES:   "¿Para cuándo es ese recordatorio? Dime una hora, como \"en 30 min\" o \"a las 9:00\".",
		LangEN:   "When is that reminder for? Give me a time, like \"in 30 min\" or \"at 9:00\".",
	},
	MsgListOrEvents: {
		LangPtBR: "Queres ver as tuas listas ou os teus eventos? Manda /list <nome> ou pergunta pelos eventos.",
		LangPtPT: "Queres ver as tuas listas ou os teus eventos? Envia /list <nome> ou pergunta pelos eventos.",
		LangES:   "¿Quieres ver tus listas o tus eventos? Envía /list <nombre> o pregunta por los eventos.",
		LangEN:   "Do you want your lists or your events? Send /list <name> or ask about your events.",
	},
}

// Text returns the localized string for key in lang, falling back to
// English when lang or the key is not present.
func Text(key MessageKey, lang string) string {
	set, ok := catalog[key]
	if !ok {
		return string(key)
	}
	if s, ok := set[lang]; ok {
		return s
	}
	return set[LangEN]
}
