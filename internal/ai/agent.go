package ai

import (
	"context"
	"fmt"
	"time"

	"restaurant-pos/internal/database"
	"restaurant-pos/internal/models"

	"github.com/cockroachdb/errors"
	"github.com/google/generative-ai-go/genai"
	"github.com/shopspring/decimal"
	"google.golang.org/api/option"
)

// maxToolRounds bounds how many tool calls one question may chain.
const maxToolRounds = 4

// Catalog is what the assistant is allowed to read and change.
type Catalog interface {
	ListMenu(ctx context.Context, availableOnly bool) ([]models.MenuItem, error)
	UpdateMenuPrice(ctx context.Context, id uint, price decimal.Decimal) (bool, error)
	SalesReport(ctx context.Context, start, end time.Time) (*database.SalesReportResult, error)
}

// Agent answers owner questions about the menu and sales using Gemini
// function calling.
type Agent struct {
	apiKey  string
	catalog Catalog
	loc     *time.Location
}

func NewAgent(apiKey string, catalog Catalog, loc *time.Location) *Agent {
	if loc == nil {
		loc = time.Local
	}
	return &Agent{apiKey: apiKey, catalog: catalog, loc: loc}
}

// Enabled reports whether an API key is configured.
func (a *Agent) Enabled() bool { return a.apiKey != "" }

func (a *Agent) Run(ctx context.Context, userMessage string) (string, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(a.apiKey))
	if err != nil {
		return "", errors.Wrap(err, "gemini client")
	}
	defer client.Close()

	model := client.GenerativeModel("gemini-2.0-flash-001")
	model.Tools = tools

	today := time.Now().In(a.loc).Format("2006-01-02")
	systemPrompt := fmt.Sprintf(`SYSTEM: Today is %s. You are the assistant of a restaurant POS.

	RULES:
	1. UPDATE: If the owner asks to change a dish price by NAME, do NOT ask for the ID.
	   - Call 'list_menu' to find the ID.
	   - Call 'update_menu_price' using that ID.

	2. READ: For PRICE, PROMOTION, CATEGORY or AVAILABILITY of a dish, call 'list_menu'
	   and read the JSON to answer.

	3. SALES: For sales, revenue or best sellers, use 'get_sales_report'.

	USER: %s`, today, userMessage)

	session := model.StartChat()
	resp, err := session.SendMessage(ctx, genai.Text(systemPrompt))
	if err != nil {
		return "", errors.Wrap(err, "gemini send")
	}

	for round := 0; round < maxToolRounds; round++ {
		call, ok := firstCall(resp)
		if !ok {
			break
		}
		result := a.callTool(ctx, call)
		resp, err = session.SendMessage(ctx, genai.FunctionResponse{Name: call.Name, Response: result})
		if err != nil {
			return "", errors.Wrapf(err, "gemini tool response %s", call.Name)
		}
	}
	return printResponse(resp), nil
}

var tools = []*genai.Tool{
	{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        "list_menu",
				Description: "Get the full menu. Use this to find ANY dish details like ID, Name, Price, Promotion or Availability.",
			},
			{
				Name:        "update_menu_price",
				Description: "Update the unit price of a dish using its ID",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"menu_item_id": {Type: genai.TypeInteger, Description: "ID of the dish"},
						"new_price":    {Type: genai.TypeNumber, Description: "New price"},
					},
					Required: []string{"menu_item_id", "new_price"},
				},
			},
			{
				Name:        "get_sales_report",
				Description: "Get revenue, completed order count and top dishes for a date range.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"start_date": {Type: genai.TypeString, Description: "Start date (YYYY-MM-DD)"},
						"end_date":   {Type: genai.TypeString, Description: "End date (YYYY-MM-DD), inclusive"},
					},
					Required: []string{"start_date", "end_date"},
				},
			},
		},
	},
}

func firstCall(resp *genai.GenerateContentResponse) (genai.FunctionCall, bool) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return genai.FunctionCall{}, false
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if fc, ok := part.(genai.FunctionCall); ok {
			return fc, true
		}
	}
	return genai.FunctionCall{}, false
}

// callTool runs one function call and returns the payload sent back to the
// model. Failures are reported to the model, not to the caller.
func (a *Agent) callTool(ctx context.Context, call genai.FunctionCall) map[string]interface{} {
	switch call.Name {
	case "list_menu":
		items, err := a.catalog.ListMenu(ctx, false)
		if err != nil {
			return map[string]interface{}{"error": err.Error()}
		}
		type simpleDish struct {
			ID             uint   `json:"id"`
			Name           string `json:"name"`
			Price          string `json:"price"`
			Category       string `json:"category"`
			PromotionQty   int    `json:"promotion_qty,omitempty"`
			PromotionPrice string `json:"promotion_price,omitempty"`
			Available      bool   `json:"available"`
		}
		list := make([]simpleDish, 0, len(items))
		for _, m := range items {
			d := simpleDish{ID: m.ID, Name: m.Name, Price: m.Price.StringFixed(2), Category: m.Category, Available: m.IsAvailable}
			if m.PromotionQty > 0 {
				d.PromotionQty = m.PromotionQty
				d.PromotionPrice = m.PromotionPrice.StringFixed(2)
			}
			list = append(list, d)
		}
		return map[string]interface{}{"menu": list}

	case "update_menu_price":
		id, ok1 := call.Args["menu_item_id"].(float64)
		price, ok2 := call.Args["new_price"].(float64)
		if !ok1 || !ok2 {
			return map[string]interface{}{"error": "menu_item_id and new_price are required numbers"}
		}
		updated, err := a.catalog.UpdateMenuPrice(ctx, uint(id), decimal.NewFromFloat(price).Round(2))
		if err != nil {
			return map[string]interface{}{"error": err.Error()}
		}
		status := "Success"
		if !updated {
			status = "Menu item ID not found"
		}
		return map[string]interface{}{"status": status, "new_price": price}

	case "get_sales_report":
		startStr, _ := call.Args["start_date"].(string)
		endStr, _ := call.Args["end_date"].(string)
		start, err1 := time.ParseInLocation("2006-01-02", startStr, a.loc)
		end, err2 := time.ParseInLocation("2006-01-02", endStr, a.loc)
		if err1 != nil || err2 != nil {
			return map[string]interface{}{"error": "Dates must be in YYYY-MM-DD format."}
		}
		report, err := a.catalog.SalesReport(ctx, start, end.AddDate(0, 0, 1))
		if err != nil {
			return map[string]interface{}{"error": "Error calculating sales."}
		}
		top := make([]string, 0, len(report.TopItems))
		for _, it := range report.TopItems {
			top = append(top, fmt.Sprintf("%s x%s", it.Name, it.Quantity.String()))
		}
		return map[string]interface{}{
			"revenue":     report.TotalRevenue.StringFixed(2),
			"sales_count": report.TotalCount,
			"top_items":   top,
		}
	}
	return map[string]interface{}{"error": "unknown tool " + call.Name}
}

func printResponse(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "I completed the action."
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			return string(txt)
		}
	}
	return "I completed the action."
}
