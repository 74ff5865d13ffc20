package site

import (
	"net/url"

	"github.com/shopspring/decimal"
)

type Page string

const (
	PageHome           Page = "home"
	PageShop           Page = "shop"
	PageStory          Page = "story"
	PageProcess        Page = "process"
	PageSustainability Page = "sustainability"
	PageBlog           Page = "blog"
	PageSubscriptions  Page = "subscriptions"
	PageGifts          Page = "gifts"
	PageContact        Page = "contact"
)

var pageTitles = map[Page]string{
	PageHome:           "Inicio",
	PageShop:           "La Tienda",
	PageStory:          "Nuestra Historia",
	PageProcess:        "El Proceso",
	PageSustainability: "Sostenibilidad Real",
	PageBlog:           "El Diario del Cacao",
	PageSubscriptions:  "Suscripciones",
	PageGifts:          "Regalos de la Realeza",
	PageContact:        "Audiencia Real",
}

// ParsePage accepts the names of the static marketing pages served under /{page}.
func ParsePage(s string) (Page, bool) {
	p := Page(s)
	switch p {
	case PageStory, PageProcess, PageSustainability, PageBlog, PageSubscriptions, PageGifts, PageContact:
		return p, true
	}
	return "", false
}

func (p Page) Title() string { return pageTitles[p] }

func (p Page) Path() string {
	if p == PageHome {
		return "/"
	}
	return "/" + string(p)
}

type NavLink struct {
	Label string
	Page  Page
}

var navLinks = []NavLink{
	{"Inicio", PageHome},
	{"Tienda", PageShop},
	{"Nuestra Historia", PageStory},
	{"Contacto", PageContact},
}

var footerLinks = []NavLink{
	{"El Proceso", PageProcess},
	{"Sostenibilidad", PageSustainability},
	{"Blog", PageBlog},
	{"Suscripciones", PageSubscriptions},
	{"Regalos", PageGifts},
}

// ShopFilter is one of the quick filters on the shop page. An empty tag means all.
type ShopFilter struct {
	Label string
	Tag   string
}

func (f ShopFilter) Href() string {
	if f.Tag == "" {
		return "/shop"
	}
	return "/shop?tag=" + url.QueryEscape(f.Tag)
}

var shopFilters = []ShopFilter{
	{"Todos", ""},
	{"Populares", "Best Seller"},
	{"Raw", "Raw"},
}

type ProcessStep struct {
	Title string
	Desc  string
}

var processSteps = []ProcessStep{
	{"Selección del Árbol", `Identificamos los árboles "Madre" genéticamente puros de cacao Nacional Arriba.`},
	{"Cosecha Manual", "Solo machete. Solo mazorcas maduras. Solo al amanecer para preservar la humedad."},
	{"Fermentación Anaeróbica", "48 horas sin oxígeno para desarrollar precursores de sabor frutal intenso."},
	{"Secado Solar", "En camas elevadas de bambú, bajo el sol ecuatorial, reduciendo la humedad al 7%."},
	{"Tostado Lento", "Lotes pequeños. Calor indirecto. El momento exacto donde el aroma se abre."},
	{"Descascarillado", "Separación precisa de la cáscara mediante flujo de aire controlado."},
	{"Selección Final", "Ojos expertos retiran cualquier nib imperfecto manualmente."},
}

type Pillar struct {
	Title string
	Desc  string
}

var sustainabilityPillars = []Pillar{
	{"Huella de Carbono Negativa", "Nuestros bosques de cacao capturan 4x más carbono del que emite nuestro procesamiento."},
	{"Comercio Directo Real", "Pagamos un 300% por encima del precio de mercado de la bolsa de NY directamente a 45 familias agricultoras."},
	{"Agricultura Regenerativa", "No usamos monocultivos. Nuestro cacao crece en un sistema agroforestal biodiverso."},
}

type BlogPost struct {
	Title string
	Date  string
	Image string
}

var blogPosts = []BlogPost{
	{"Por qué tus nibs necesitan respirar antes de comer", "Oct 12, 2024", "https://picsum.photos/id/42/600/400"},
	{"Maridaje: Nibs y Cabernet Sauvignon", "Sep 28, 2024", "https://picsum.photos/id/55/600/400"},
	{"La leyenda de Moctezuma y el grano sagrado", "Sep 15, 2024", "https://picsum.photos/id/88/600/400"},
	{"Receta: Avena nocturna con Nibs y Sal Marina", "Ago 30, 2024", "https://picsum.photos/id/102/600/400"},
	{"Visita a la finca: Cosecha de verano", "Ago 10, 2024", "https://picsum.photos/id/202/600/400"},
	{"Beneficios de los flavonoides para la concentración", "Jul 22, 2024", "https://picsum.photos/id/292/600/400"},
}

type Tier struct {
	Name     string
	Monthly  decimal.Decimal
	Perks    []string
	Featured bool
}

var subscriptionTiers = []Tier{
	{
		Name:    "Explorador",
		Monthly: decimal.NewFromInt(22),
		Perks:   []string{"1 Bolsa de 500g (Original)", "Recetas mensuales", "Envío gratuito"},
	},
	{
		Name:     "Connaisseur",
		Monthly:  decimal.NewFromInt(40),
		Perks:    []string{"2 Bolsas de 500g (A elección)", `Acceso a "Small Batch"`, "Regalo sorpresa trimestral", "Envío prioritario"},
		Featured: true,
	},
	{
		Name:    "Emperador",
		Monthly: decimal.NewFromInt(75),
		Perks:   []string{"4 Bolsas de 500g", "Bloque Ceremonial incluido", "Consultoría privada con Chef", "Envío gratuito global"},
	},
}

type GiftSet struct {
	Name     string
	Includes string
	Price    decimal.Decimal
	Image    string
}

var giftSets = []GiftSet{
	{"La Caja del Tesoro", "Incluye 3 variedades + Molinillo", decimal.NewFromInt(85), "https://picsum.photos/id/40/800/600"},
	{"Ritual Ceremonial", "Bloque Puro + Taza de Arcilla", decimal.NewFromInt(120), "https://picsum.photos/id/250/800/600"},
}

// featuredCount is how many catalog products the home page shows.
const featuredCount = 3
