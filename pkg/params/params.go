package params

// TrainParams is the typed view of the known trainParams.json keys.
// The trainer treats any key it does not know as an error, so unknown keys
// stay in the Document field map and are never promoted here.
type TrainParams struct {
	Seed            int    `json:"seed"`
	InstrType       string `json:"instrType"`
	InstrSetName    string `json:"instrSetName"`
	TimeMaxTraining int    `json:"timeMaxTraining"`
	NbGenerations   int    `json:"nbGenerations"`
}

// RuntimeParams is the typed view of the known params.json keys.
type RuntimeParams struct {
	NbThreads int `json:"nbThreads"`
}
