package tre

import "time"

// LabelVocabulary names the labels of the result surface. Values are
// matched against scraped paragraph labels, first by prefix and then
// fuzzily, so minor copy changes on the site don't break extraction.
type LabelVocabulary struct {
	Enrollment   string `json:"enrollment"`
	Zone         string `json:"zone"`
	Section      string `json:"section"`
	PollingPlace string `json:"polling_place"`
	Address      string `json:"address"`
	Municipality string `json:"municipality"`
	Neighborhood string `json:"neighborhood"`
	Country      string `json:"country"`
}

// Profile is everything site-specific about the lookup: where the form
// lives, how to address its fields, what the loading and not-found
// surfaces look like, and how long each step may take. The interaction
// protocol itself never changes shape, only the profile does.
type Profile struct {
	LookupURL        string
	ConsentButton    string
	NameField        string
	BirthField       string
	MotherField      string
	SubmitButton     string
	DateLayout       string
	LoadingText      string
	NotFoundSelector string
	BiometricsMarker string
	Labels           LabelVocabulary

	NavigateTimeout time.Duration
	// FieldWait bounds how long a form field may take to show up.
	FieldWait time.Duration
	// ResultWait bounds the post-submit render. Much longer than
	// FieldWait because the remote lookup itself is slow.
	ResultWait   time.Duration
	PollInterval time.Duration
}

// DefaultProfile targets the TRE-CE "consulta por nome" form.
func DefaultProfile() Profile {
	return Profile{
		LookupURL:        "https://www.tre-ce.jus.br/servicos-eleitorais/titulo-e-local-de-votacao/consulta-por-nome",
		ConsentButton:    `button[title="Ciente"]`,
		NameField:        "#LV_NomeTituloCPF",
		BirthField:       "#LV_DataNascimento",
		MotherField:      "#LV_NomeMae",
		SubmitButton:     "#consultar-local-votacao-form-submit",
		DateLayout:       "02/01/2006",
		LoadingText:      "carregando conteúdo",
		NotFoundSelector: "div.alert.alert-warning",
		BiometricsMarker: "ELEITOR/ELEITORA COM BIOMETRIA COLETADA",
		Labels: LabelVocabulary{
			Enrollment:   "Inscrição",
			Zone:         "Zona",
			Section:      "Seção",
			PollingPlace: "Local",
			Address:      "Endereço",
			Municipality: "Município",
			Neighborhood: "Bairro",
			Country:      "País",
		},
		NavigateTimeout: time.Second * 30,
		FieldWait:       time.Second * 5,
		ResultWait:      time.Second * 90,
		PollInterval:    time.Second * 2,
	}
}
