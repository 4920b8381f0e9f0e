package services

import (
	"bytes"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/LenBanana/DreckFoods/models"

	"golang.org/x/net/html"
)

// Search result rows carry their detail link in an onclick handler.
var foodLinkRe = regexp.MustCompile(`window\.location\.href='(/db/de/lebensmittel/[^']+)'`)

// Labels on the detail page are German; values use comma decimals and
// render missing data as "k.A." ("keine Angabe").
var nutrientLabels = map[string]string{
	"kilojoules": "Brennwert",
	"calories":   "Kalorien",
	"protein":    "Protein",
	"fat":        "Fett",
	"carbs":      "Kohlenhydrate",
	"sugar":      "Zucker",
	"polyols":    "Polyole",
	"fiber":      "Ballaststoffe",
	"caffeine":   "Koffein",
	"salt":       "Salz",
	"iron":       "Eisen",
	"zinc":       "Zink",
	"magnesium":  "Magnesium",
	"chloride":   "Chlorid",
	"manganese":  "Mangan",
	"sulfur":     "Schwefel",
	"potassium":  "Kalium",
	"calcium":    "Kalzium",
	"phosphorus": "Phosphor",
	"copper":     "Kupfer",
	"fluoride":   "Fluorid",
	"iodine":     "Jod",
}

// extractFoodLinks pulls every distinct item-detail link out of a search
// results listing, preserving discovery order.
func extractFoodLinks(body []byte) []string {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	var links []string
	seen := make(map[string]struct{})
	walk(doc, func(n *html.Node) {
		if n.Type != html.ElementNode || n.Data != "div" {
			return
		}
		m := foodLinkRe.FindStringSubmatch(attr(n, "onclick"))
		if m == nil {
			return
		}
		if _, ok := seen[m[1]]; ok {
			return
		}
		seen[m[1]] = struct{}{}
		links = append(links, m[1])
	})
	return links
}

// parseFoodPage reads a detail page into an unpersisted FoodItem. A page
// without the product headline is treated as unexpected content.
func parseFoodPage(body []byte, pageURL string) (*models.FoodItem, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	headline := findNode(doc, elementWithAttr("h1", "id", "fddb-headline1"))
	if headline == nil {
		return nil, errors.New("unexpected page layout: product headline missing")
	}

	item := &models.FoodItem{
		Name:        innerText(headline),
		URL:         pageURL,
		Description: "No description available",
		Brand:       "Unknown",
	}
	if item.Name == "" {
		item.Name = "Unknown"
	}

	if desc := findNode(doc, elementWithAttr("p", "class", "lidesc2012")); desc != nil {
		item.Description = innerText(desc)
	}
	if img := findNode(doc, elementWithAttr("img", "class", "imagesimpleborder")); img != nil {
		item.ImageURL = attr(img, "src")
	}
	if brand := brandText(doc); brand != "" {
		item.Brand = brand
	}
	if ean := eanText(doc); ean != "" {
		item.Ean = &ean
	}
	if tagsNode := findNode(doc, elementWithAttr("h2", "id", "fddb-headline2")); tagsNode != nil {
		walk(tagsNode, func(n *html.Node) {
			if n.Type == html.ElementNode && n.Data == "a" {
				if tag := innerText(n); tag != "" {
					item.Tags = append(item.Tags, tag)
				}
			}
		})
	}

	item.Nutrition = models.FoodNutritionFromInfo(models.NutritionInfo{
		Kilojoules: nutrientValue(doc, nutrientLabels["kilojoules"]),
		Calories:   nutrientValue(doc, nutrientLabels["calories"]),
		Protein:    nutrientValue(doc, nutrientLabels["protein"]),
		Fat:        nutrientValue(doc, nutrientLabels["fat"]),
		Carbohydrates: models.CarbohydrateInfo{
			Total:   nutrientValue(doc, nutrientLabels["carbs"]),
			Sugar:   nutrientValue(doc, nutrientLabels["sugar"]),
			Polyols: nutrientValue(doc, nutrientLabels["polyols"]),
		},
		Fiber:    nutrientValue(doc, nutrientLabels["fiber"]),
		Caffeine: nutrientValue(doc, nutrientLabels["caffeine"]),
		Minerals: models.MineralInfo{
			Salt:       nutrientValue(doc, nutrientLabels["salt"]),
			Iron:       nutrientValue(doc, nutrientLabels["iron"]),
			Zinc:       nutrientValue(doc, nutrientLabels["zinc"]),
			Magnesium:  nutrientValue(doc, nutrientLabels["magnesium"]),
			Chloride:   nutrientValue(doc, nutrientLabels["chloride"]),
			Manganese:  nutrientValue(doc, nutrientLabels["manganese"]),
			Sulfur:     nutrientValue(doc, nutrientLabels["sulfur"]),
			Potassium:  nutrientValue(doc, nutrientLabels["potassium"]),
			Calcium:    nutrientValue(doc, nutrientLabels["calcium"]),
			Phosphorus: nutrientValue(doc, nutrientLabels["phosphorus"]),
			Copper:     nutrientValue(doc, nutrientLabels["copper"]),
			Fluoride:   nutrientValue(doc, nutrientLabels["fluoride"]),
			Iodine:     nutrientValue(doc, nutrientLabels["iodine"]),
		},
	})

	return item, nil
}

// nutrientValue finds the a/span node whose own text contains the label,
// then reads the text of the div following its parent div. Missing or
// "k.A." values map to the zero value; the unit is whatever follows the
// first space.
func nutrientValue(doc *html.Node, label string) models.NutritionValue {
	labelNode := findNode(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode || (n.Data != "a" && n.Data != "span") {
			return false
		}
		return strings.Contains(ownText(n), label)
	})
	if labelNode == nil {
		return models.NutritionValue{}
	}

	parent := labelNode.Parent
	for parent != nil && !(parent.Type == html.ElementNode && parent.Data == "div") {
		parent = parent.Parent
	}
	if parent == nil {
		return models.NutritionValue{}
	}
	valueDiv := nextElementSibling(parent, "div")
	if valueDiv == nil {
		return models.NutritionValue{}
	}

	return parseNutritionText(innerText(valueDiv))
}

// parseNutritionText turns raw value text like "12,5 g" into a
// NutritionValue, normalizing the comma decimal separator.
func parseNutritionText(raw string) models.NutritionValue {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" || strings.HasPrefix(raw, "k.a") || strings.HasPrefix(raw, "k. a") {
		return models.NutritionValue{}
	}

	parts := strings.SplitN(raw, " ", 2)
	valueStr := strings.ReplaceAll(parts[0], ",", ".")
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		value = 0
	}

	unit := ""
	if len(parts) > 1 {
		unit = strings.TrimSpace(parts[1])
	}
	return models.NutritionValue{Value: value, Unit: unit}
}

func brandText(doc *html.Node) string {
	span := findNode(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "span" &&
			strings.Contains(ownText(n), "Hersteller:")
	})
	if span == nil {
		return ""
	}
	if link := nextElementSibling(span, "a"); link != nil {
		return innerText(link)
	}
	return ""
}

func eanText(doc *html.Node) string {
	p := findNode(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "p" &&
			strings.Contains(innerText(n), "EAN:")
	})
	if p == nil {
		return ""
	}
	text := innerText(p)
	idx := strings.LastIndex(text, "EAN:")
	return strings.TrimSpace(text[idx+len("EAN:"):])
}

// DOM helpers over x/net/html nodes.

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func findNode(root *html.Node, pred func(*html.Node) bool) *html.Node {
	var found *html.Node
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if found != nil {
			return
		}
		if pred(n) {
			found = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(root)
	return found
}

func elementWithAttr(tag, key, value string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == tag && attr(n, key) == value
	}
}

func nextElementSibling(n *html.Node, tag string) *html.Node {
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode && s.Data == tag {
			return s
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// innerText joins all descendant text nodes, collapsing whitespace.
func innerText(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
			sb.WriteString(" ")
		}
	})
	return strings.Join(strings.Fields(sb.String()), " ")
}

// ownText returns only the direct text children of n.
func ownText(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return strings.TrimSpace(sb.String())
}
