package http

import (
	"embed"
	"html/template"
	"io"

	"houseprice/form"
	"houseprice/predict"
)

//go:embed templates/index.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// PageConfig is the static page shell.
type PageConfig struct {
	Title         string
	Icon          string
	Layout        string
	Header        string
	Subheader     string
	Description   string
	SidebarHeader string
	ButtonLabel   string
	SuccessPrefix string
	Footer        string
}

// DefaultPageConfig 默认页面配置
func DefaultPageConfig() PageConfig {
	return PageConfig{
		Title:         "House Price Prediction App",
		Icon:          "🏠",
		Layout:        "centered",
		Header:        "🏠 House Price Prediction App",
		Subheader:     "🔍 Predict house prices based on key features.",
		Description:   "This app uses a machine learning model to predict house prices.",
		SidebarHeader: "📋 Input Features",
		ButtonLabel:   "Predict Price",
		SuccessPrefix: "🏡 Predicted House Price:",
		Footer:        "💡 Built with Go | House Price Prediction App",
	}
}

type pageData struct {
	Page        PageConfig
	Inputs      []form.Input
	Notice      string
	InputErrors []string
	Result      *predict.Result
}

func renderPage(w io.Writer, data pageData) error {
	return pageTemplate.Execute(w, data)
}
