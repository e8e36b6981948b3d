package wallet

// giftCardClass はgiftCardClassリソースの作成ペイロード。
type giftCardClass struct {
	ID                 string       `json:"id"`
	IssuerName         string       `json:"issuerName"`
	ReviewStatus       string       `json:"reviewStatus"`
	ProgramName        string       `json:"programName"`
	HexBackgroundColor string       `json:"hexBackgroundColor"`
	Logo               *image       `json:"logo,omitempty"`
	HeroImage          *image       `json:"heroImage,omitempty"`
	TextModulesData    []textModule `json:"textModulesData,omitempty"`
}

// giftCardObject はgiftCardObjectリソースの作成ペイロード。
type giftCardObject struct {
	ID               string        `json:"id"`
	ClassID          string        `json:"classId"`
	State            string        `json:"state"`
	CardNumber       string        `json:"cardNumber"`
	Barcode          barcode       `json:"barcode"`
	TextModulesData  []textModule  `json:"textModulesData,omitempty"`
	ImageModulesData []imageModule `json:"imageModulesData,omitempty"`
}

type barcode struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type textModule struct {
	Header string `json:"header"`
	Body   string `json:"body"`
}

type imageModule struct {
	MainImage *image `json:"mainImage"`
}

type image struct {
	SourceURI          imageURI        `json:"sourceUri"`
	ContentDescription localizedString `json:"contentDescription"`
}

type imageURI struct {
	URI string `json:"uri"`
}

type localizedString struct {
	DefaultValue translatedString `json:"defaultValue"`
}

type translatedString struct {
	Language string `json:"language"`
	Value    string `json:"value"`
}

func newImage(uri, description string) *image {
	return &image{
		SourceURI: imageURI{URI: uri},
		ContentDescription: localizedString{
			DefaultValue: translatedString{Language: "en", Value: description},
		},
	}
}
