package notify

// Template slugs.
const (
	SlugPackageArrival         = "package_arrival"
	SlugResidentDecision       = "resident_decision"
	SlugSindicoDefense         = "sindico_defense"
	SlugNewOccurrence          = "new_occurrence"
	SlugPartyHallConfirmation  = "party_hall_confirmation"
	SlugPartyHallReminder      = "party_hall_reminder"
	SlugPartyHallCancellation  = "party_hall_cancellation"
	slugTestConnection         = "test_connection"
	defaultTestConnectionText  = "✅ Teste de conexão do WhatsApp realizado com sucesso!"
	defaultSecureLinkPathStart = "/ocorrencia/"
)

// DefaultTemplate is the built-in free-text body of a slug. Rows in
// whatsapp_templates take precedence; cmd/seed_templates writes these as the
// global rows.
type DefaultTemplate struct {
	Slug        string
	Name        string
	Content     string
	ParamsOrder []string
}

var DefaultTemplates = []DefaultTemplate{
	{
		Slug: SlugPackageArrival,
		Name: "Chegada de encomenda",
		Content: "📦 Olá, {nome}!\n\nChegou uma encomenda para você no {condominio}.\n" +
			"Bloco {bloco}, apartamento {apartamento}.\n" +
			"Tipo: {tipo_encomenda}\nRastreio: {codigo_rastreio}\n" +
			"Recebida por: {porteiro} em {data} às {hora}.\n\n" +
			"🔑 Código de retirada: *{codigo_retirada}*\n\nApresente o código na portaria para retirar.",
		ParamsOrder: []string{"nome", "condominio", "bloco", "apartamento", "tipo_encomenda", "codigo_retirada"},
	},
	{
		Slug: SlugNewOccurrence,
		Name: "Nova ocorrência",
		Content: "⚠️ Olá, {nome}.\n\nFoi registrada uma ocorrência ({tipo}) para o apartamento {apartamento}, bloco {bloco}, no {condominio}.\n" +
			"Assunto: {ocorrencia}\nData: {data}\n\n{descricao}\n\n" +
			"Acesse o link para ver os detalhes e apresentar sua defesa:\n{link}",
		ParamsOrder: []string{"nome", "tipo", "condominio", "ocorrencia", "data", "link"},
	},
	{
		Slug: SlugResidentDecision,
		Name: "Decisão sobre ocorrência",
		Content: "⚖️ Olá, {nome}.\n\nO síndico do {condominio} registrou a decisão sobre a ocorrência \"{ocorrencia}\":\n" +
			"Decisão: *{decisao}*\n{justificativa}\n{valor_multa}\n\nDetalhes: {link}",
		ParamsOrder: []string{"nome", "condominio", "ocorrencia", "decisao", "justificativa", "valor_multa"},
	},
	{
		Slug: SlugSindicoDefense,
		Name: "Nova defesa recebida",
		Content: "📝 Olá, {nome}.\n\n{morador} (bloco {bloco}, apto {apartamento}) enviou uma defesa para a ocorrência \"{ocorrencia}\" no {condominio}:\n\n" +
			"\"{defesa}\"\n\nAnalise em: {link}",
		ParamsOrder: []string{"nome", "morador", "bloco", "apartamento", "ocorrencia"},
	},
	{
		Slug: SlugPartyHallConfirmation,
		Name: "Reserva do salão confirmada",
		Content: "🎉 Olá, {nome}!\n\nSua reserva do salão de festas no {condominio} foi confirmada para {data}, das {horario_inicio} às {horario_fim}.",
		ParamsOrder: []string{"nome", "condominio", "data", "horario_inicio", "horario_fim"},
	},
	{
		Slug: SlugPartyHallReminder,
		Name: "Lembrete de reserva do salão",
		Content: "⏰ Olá, {nome}!\n\nLembrete: sua reserva do salão de festas no {condominio} é amanhã, {data}, das {horario_inicio} às {horario_fim}.",
		ParamsOrder: []string{"nome", "condominio", "data", "horario_inicio", "horario_fim"},
	},
	{
		Slug: SlugPartyHallCancellation,
		Name: "Reserva do salão cancelada",
		Content: "❌ Olá, {nome}.\n\nSua reserva do salão de festas no {condominio} para {data} ({horario_inicio} às {horario_fim}) foi cancelada.",
		ParamsOrder: []string{"nome", "condominio", "data", "horario_inicio", "horario_fim"},
	},
}

func defaultTemplate(slug string) (DefaultTemplate, bool) {
	for _, t := range DefaultTemplates {
		if t.Slug == slug {
			return t, true
		}
	}
	return DefaultTemplate{}, false
}
