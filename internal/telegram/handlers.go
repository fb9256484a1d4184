package telegram

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"investopal/internal/analysis"
	"investopal/internal/config"
	"investopal/internal/dashboard"
	"investopal/internal/finance"
	"investopal/internal/logging"
	"investopal/internal/report"
	"investopal/internal/storage"
)

const windowPattern = `(\d+[dwmy]|custom|\d{4}-\d{2}-\d{2}(?:\.\.|:|\s+)\d{4}-\d{2}-\d{2})`

var (
	// /analyze SYMBOL [window]
	reAnalyze = regexp.MustCompile(`^/analyze(?:@[\w_]+)?\s+([A-Za-z0-9\.^_=+-]+)(?:\s+` + windowPattern + `)?$`)
	// /compare S1 S2 ... [window]
	reCompare = regexp.MustCompile(`^/compare(?:@[\w_]+)?\s+([A-Za-z0-9\.^_=+\-\s]+?)(?:\s+` + windowPattern + `)?$`)
	reNews    = regexp.MustCompile(`^/news(?:@[\w_]+)?\s+([A-Za-z0-9\.^_=+-]+)$`)
	// /explain SYMBOL [window]
	reExplain = regexp.MustCompile(`^/explain(?:@[\w_]+)?\s+([A-Za-z0-9\.^_=+-]+)(?:\s+` + windowPattern + `)?$`)
	reProfile = regexp.MustCompile(`^/profile(?:@[\w_]+)?(?:\s+(\w+))?$`)
	// /plan AMOUNT SIP YEARS
	rePlan = regexp.MustCompile(`^/plan(?:@[\w_]+)?\s+([\d,\.]+)\s+([\d,\.]+)\s+(\d+)$`)
	// /project [AMOUNT SIP YEARS [RATE%]]
	reProject = regexp.MustCompile(`^/project(?:@[\w_]+)?(?:\s+([\d,\.]+)\s+([\d,\.]+)\s+(\d+)(?:\s+(-?[\d\.]+)%?)?)?$`)
	reExport  = regexp.MustCompile(`^/export(?:@[\w_]+)?$`)
	reUsage   = regexp.MustCompile(`^/usage(?:@[\w_]+)?(?:\s+(\d+))?$`)
	reHelp    = regexp.MustCompile(`^/(help|start)(?:@[\w_]+)?$`)
)

// Usage categories.
const (
	categoryAnalysis = "analysis"
	categoryPlanning = "planning"
	categoryGeneral  = "general"
)

// Sender is the part of tgbotapi.BotAPI the handlers use.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Explainer writes commentary on computed metrics.
type Explainer interface {
	Explain(ctx context.Context, ticker string, profile config.Profile, m analysis.RiskMetrics, category analysis.RiskCategory) (string, error)
}

type Handlers struct {
	api       Sender
	dash      *dashboard.Dashboard
	store     *storage.Store
	explainer Explainer
	cfg       *config.Config
	logger    *logging.Logger
	now       func() time.Time
}

// NewHandlers wires the command handlers. explainer may be nil.
func NewHandlers(api Sender, dash *dashboard.Dashboard, store *storage.Store, explainer Explainer, cfg *config.Config, logger *logging.Logger) *Handlers {
	return &Handlers{
		api:       api,
		dash:      dash,
		store:     store,
		explainer: explainer,
		cfg:       cfg,
		logger:    logger.Component("telegram"),
		now:       time.Now,
	}
}

func (h *Handlers) HandleMessage(m *tgbotapi.Message) {
	if m == nil || m.Chat == nil {
		return
	}
	txt := strings.TrimSpace(m.Text)
	if !strings.HasPrefix(txt, "/") {
		return
	}
	chatID := m.Chat.ID
	ctx, cancel := context.WithTimeout(context.Background(), 45*time.Second)
	defer cancel()

	switch {
	case reAnalyze.MatchString(txt):
		g := reAnalyze.FindStringSubmatch(txt)
		h.record(chatID, "/analyze", categoryAnalysis)
		h.handleAnalyze(ctx, chatID, strings.ToUpper(g[1]), g[2])

	case reCompare.MatchString(txt):
		g := reCompare.FindStringSubmatch(txt)
		syms := uniqueSymbols(g[1])
		if len(syms) < 2 {
			h.reply(chatID, "Please provide at least two symbols, e.g. /compare AAPL MSFT 1y")
			return
		}
		h.record(chatID, "/compare", categoryAnalysis)
		h.handleCompare(ctx, chatID, syms, g[2])

	case reNews.MatchString(txt):
		g := reNews.FindStringSubmatch(txt)
		h.record(chatID, "/news", categoryAnalysis)
		h.handleNews(ctx, chatID, strings.ToUpper(g[1]))

	case reExplain.MatchString(txt):
		g := reExplain.FindStringSubmatch(txt)
		h.record(chatID, "/explain", categoryAnalysis)
		h.handleExplain(ctx, chatID, strings.ToUpper(g[1]), g[2])

	case reProfile.MatchString(txt):
		g := reProfile.FindStringSubmatch(txt)
		h.record(chatID, "/profile", categoryPlanning)
		h.handleProfile(chatID, g[1])

	case rePlan.MatchString(txt):
		g := rePlan.FindStringSubmatch(txt)
		h.record(chatID, "/plan", categoryPlanning)
		h.handlePlan(chatID, g[1], g[2], g[3])

	case reProject.MatchString(txt):
		g := reProject.FindStringSubmatch(txt)
		h.record(chatID, "/project", categoryPlanning)
		h.handleProject(chatID, g[1:])

	case reExport.MatchString(txt):
		h.record(chatID, "/export", categoryPlanning)
		h.handleExport(chatID)

	case reUsage.MatchString(txt):
		g := reUsage.FindStringSubmatch(txt)
		days := 7
		if g[1] != "" {
			days, _ = strconv.Atoi(g[1])
			days = max(1, min(days, 90))
		}
		h.record(chatID, "/usage", categoryGeneral)
		h.handleUsage(chatID, days)

	case reHelp.MatchString(txt):
		h.record(chatID, "/help", categoryGeneral)
		h.handleHelp(chatID)

	default:
		h.reply(chatID, "Unknown command or arguments. Send /help for the list of commands.")
	}
}

// uniqueSymbols splits on whitespace, upper-cases and drops repeats.
func uniqueSymbols(field string) []string {
	raw := strings.Fields(field)
	seen := map[string]struct{}{}
	syms := make([]string, 0, len(raw))
	for _, s := range raw {
		su := strings.ToUpper(s)
		if _, ok := seen[su]; ok {
			continue
		}
		seen[su] = struct{}{}
		syms = append(syms, su)
	}
	return syms
}

// parseAmount accepts thousands separators, e.g. 50,000.
func parseAmount(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
}

func (h *Handlers) record(chatID int64, command, category string) {
	if h.store == nil {
		return
	}
	if err := h.store.RecordUsage(chatID, command, category, h.now()); err != nil {
		h.logger.Warn().Err(err).Str("command", command).Msg("usage not recorded")
	}
}

// prefs falls back to the configured defaults for chats without saved preferences.
func (h *Handlers) prefs(chatID int64) storage.ChatPrefs {
	d := h.cfg.Defaults
	p := storage.ChatPrefs{ChatID: chatID, Risk: d.Risk, Amount: d.InvestmentAmount, Contribution: d.MonthlyContribution, Years: d.Years}
	if h.store == nil {
		return p
	}
	saved, ok, err := h.store.LoadPrefs(chatID)
	if err != nil {
		h.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("prefs not loaded")
		return p
	}
	if ok {
		return saved
	}
	return p
}

func (h *Handlers) savePrefs(p storage.ChatPrefs) bool {
	if h.store == nil {
		return true
	}
	if err := h.store.SavePrefs(p); err != nil {
		h.logger.Error().Err(err).Int64("chat_id", p.ChatID).Msg("prefs not saved")
		h.reply(p.ChatID, "Could not save your settings: "+err.Error())
		return false
	}
	return true
}

func (h *Handlers) selected(p storage.ChatPrefs) analysis.RiskCategory {
	c, err := analysis.ParseRiskCategory(p.Risk)
	if err != nil {
		c, _ = analysis.ParseRiskCategory(h.cfg.Defaults.Risk)
	}
	return c
}

func (h *Handlers) window(chatID int64, expr string) (finance.Window, bool) {
	if expr == "" {
		expr = h.cfg.Defaults.Window
	}
	w, err := finance.ResolveWindow(expr, h.now())
	if err != nil {
		h.reply(chatID, err.Error())
		return finance.Window{}, false
	}
	return w, true
}

func (h *Handlers) analyze(ctx context.Context, chatID int64, sym, expr string) (*dashboard.Analysis, finance.Window, bool) {
	w, ok := h.window(chatID, expr)
	if !ok {
		return nil, w, false
	}
	a, err := h.dash.Analyze(ctx, dashboard.AnalyzeRequest{
		Ticker:   sym,
		Start:    w.Start,
		End:      w.End,
		Selected: h.selected(h.prefs(chatID)),
	})
	if err != nil {
		h.reply(chatID, fmt.Sprintf("Couldn’t analyze %s: %s", sym, report.ErrorMessage(err)))
		return nil, w, false
	}
	return a, w, true
}

func (h *Handlers) handleAnalyze(ctx context.Context, chatID int64, sym, expr string) {
	a, w, ok := h.analyze(ctx, chatID, sym, expr)
	if !ok {
		return
	}
	h.reply(chatID, report.FormatAnalysis(a))

	caption := sym + " • " + strings.ToUpper(w.Label)
	if img, err := finance.AnalysisChart(sym, a.Series); err == nil {
		h.photo(chatID, sym+"_price.png", caption, img)
	} else {
		h.logger.Warn().Err(err).Str("ticker", sym).Msg("price chart skipped")
	}
	if img, err := finance.RollingVolatilityChart(sym, h.dash.Params().RollingWindow, a.Metrics.RollingVolatility); err == nil {
		h.photo(chatID, sym+"_volatility.png", caption+" • rolling volatility", img)
	} else {
		h.logger.Debug().Err(err).Str("ticker", sym).Msg("volatility chart skipped")
	}
	if img, err := finance.VolumeChart(sym, a.Records); err == nil {
		h.photo(chatID, sym+"_volume.png", caption+" • volume", img)
	} else {
		h.logger.Debug().Err(err).Str("ticker", sym).Msg("volume chart skipped")
	}
}

func (h *Handlers) handleCompare(ctx context.Context, chatID int64, syms []string, expr string) {
	w, ok := h.window(chatID, expr)
	if !ok {
		return
	}
	rows := h.dash.Compare(ctx, syms, w.Start, w.End, h.selected(h.prefs(chatID)))
	h.reply(chatID, report.FormatComparison(rows))

	var series []finance.NamedSeries
	for _, r := range rows {
		if r.Err == nil {
			series = append(series, finance.NamedSeries{Name: r.Ticker, Series: r.Analysis.Series})
		}
	}
	if len(series) < 2 {
		return
	}
	img, err := finance.ComparisonChart(series)
	if err != nil {
		h.logger.Warn().Err(err).Strs("tickers", syms).Msg("comparison chart skipped")
		return
	}
	h.photo(chatID, strings.Join(syms, "_")+"_indexed.png",
		"Indexed: "+strings.Join(syms, ", ")+" • "+strings.ToUpper(w.Label), img)
}

func (h *Handlers) handleNews(ctx context.Context, chatID int64, sym string) {
	items := h.dash.News(ctx, sym, h.cfg.Defaults.NewsLimit)
	msg := tgbotapi.NewMessage(chatID, report.FormatNews(sym, items))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	h.send(msg)
}

func (h *Handlers) handleExplain(ctx context.Context, chatID int64, sym, expr string) {
	if h.explainer == nil {
		h.reply(chatID, "AI commentary is not configured.")
		return
	}
	a, _, ok := h.analyze(ctx, chatID, sym, expr)
	if !ok {
		return
	}
	out, err := h.explainer.Explain(ctx, sym, a.Profile, a.Metrics, a.Category)
	if err != nil {
		h.logger.Warn().Err(err).Str("ticker", sym).Msg("commentary failed")
		h.reply(chatID, "Commentary failed: "+err.Error())
		return
	}
	h.reply(chatID, out)
}

func (h *Handlers) handleProfile(chatID int64, name string) {
	p := h.prefs(chatID)
	if name == "" {
		h.reply(chatID, report.FormatProfiles(h.dash.Profiles(), p.Risk))
		return
	}
	cat, err := analysis.ParseRiskCategory(name)
	if err != nil {
		h.reply(chatID, "Unknown profile "+name+". Choose Conservative, Moderate or Aggressive.")
		return
	}
	p.Risk = cat.String()
	if !h.savePrefs(p) {
		return
	}
	profile := h.dash.Profile(cat)
	h.reply(chatID, fmt.Sprintf("Risk profile set to %s (%s, %.2f%% expected).", profile.Name, profile.StockType, profile.ExpectedReturn*100))

	yearly, err := h.dash.ProfileProjection(cat, p.Amount, p.Years)
	if err != nil || len(yearly) == 0 {
		return
	}
	title := fmt.Sprintf("%s • %s over %d years", profile.Name, report.Money(h.cfg.CurrencySymbol, p.Amount), p.Years)
	if img, err := finance.ProjectionChart(title, yearly); err == nil {
		h.photo(chatID, "profile_"+strings.ToLower(profile.Name)+".png", title, img)
	}
}

func (h *Handlers) handlePlan(chatID int64, amount, sip, years string) {
	a, err1 := parseAmount(amount)
	s, err2 := parseAmount(sip)
	y, err3 := strconv.Atoi(years)
	if err1 != nil || err2 != nil || err3 != nil {
		h.reply(chatID, "Usage: /plan AMOUNT SIP YEARS, e.g. /plan 50000 10000 15")
		return
	}
	if y < 1 || y > 50 {
		h.reply(chatID, "Investment horizon must be between 1 and 50 years.")
		return
	}
	p := h.prefs(chatID)
	p.Amount, p.Contribution, p.Years = a, s, y
	if !h.savePrefs(p) {
		return
	}
	cur := h.cfg.CurrencySymbol
	h.reply(chatID, fmt.Sprintf("Plan saved: %s now + %s/month for %d years. Send /project to see it.",
		report.Money(cur, a), report.Money(cur, s), y))
}

// projectionFor builds the request from args (AMOUNT SIP YEARS [RATE]) or
// the chat's saved plan when args are empty.
func (h *Handlers) projectionFor(chatID int64, args []string) (*dashboard.Projection, error) {
	p := h.prefs(chatID)
	req := dashboard.ProjectRequest{
		Initial:      p.Amount,
		Contribution: p.Contribution,
		Years:        p.Years,
		Profile:      h.selected(p),
	}
	if len(args) >= 3 && args[0] != "" {
		var err error
		if req.Initial, err = parseAmount(args[0]); err != nil {
			return nil, fmt.Errorf("%w: amount %q", analysis.ErrInvalidProjectionInput, args[0])
		}
		if req.Contribution, err = parseAmount(args[1]); err != nil {
			return nil, fmt.Errorf("%w: contribution %q", analysis.ErrInvalidProjectionInput, args[1])
		}
		if req.Years, err = strconv.Atoi(args[2]); err != nil {
			return nil, fmt.Errorf("%w: years %q", analysis.ErrInvalidProjectionInput, args[2])
		}
		if len(args) >= 4 && args[3] != "" {
			r, err := strconv.ParseFloat(args[3], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: rate %q", analysis.ErrInvalidProjectionInput, args[3])
			}
			r /= 100
			req.AnnualRate = &r
		}
	}
	return h.dash.Project(req)
}

func (h *Handlers) handleProject(chatID int64, args []string) {
	proj, err := h.projectionFor(chatID, args)
	if err != nil {
		h.reply(chatID, report.ErrorMessage(err))
		return
	}
	h.reply(chatID, report.FormatProjection(proj, h.cfg.CurrencySymbol))
	if len(proj.Yearly) == 0 {
		return
	}
	title := fmt.Sprintf("Projected value • %.2f%%/yr", proj.Input.AnnualRate*100)
	if img, err := finance.ProjectionChart(title, proj.Yearly); err == nil {
		h.photo(chatID, "projection.png", title, img)
	} else {
		h.logger.Warn().Err(err).Msg("projection chart skipped")
	}
}

func (h *Handlers) handleExport(chatID int64) {
	proj, err := h.projectionFor(chatID, nil)
	if err != nil {
		h.reply(chatID, report.ErrorMessage(err))
		return
	}
	var buf bytes.Buffer
	err = report.ProjectionCSV(&buf, report.ProjectionExport{
		InvestmentAmount:    proj.Input.Initial,
		MonthlyContribution: proj.Input.Contribution,
		ExpectedAnnualRate:  proj.Input.AnnualRate,
		Years:               proj.Input.Periods / proj.Input.PeriodsPerYear,
		ProjectedValue:      proj.Summary.Final,
	})
	if err != nil {
		h.reply(chatID, "Export failed: "+err.Error())
		return
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: "investment_projection.csv", Bytes: buf.Bytes()})
	doc.Caption = "Projection export • " + proj.Profile.Name
	h.send(doc)
}

func (h *Handlers) handleUsage(chatID int64, days int) {
	if h.store == nil {
		h.reply(chatID, "Usage tracking is not enabled.")
		return
	}
	stats, err := h.store.UsageStats(h.now().AddDate(0, 0, -days))
	if err != nil {
		h.reply(chatID, "Usage failed: "+err.Error())
		return
	}
	text := report.FormatUsage(stats, days)
	if len(stats) == 0 {
		h.reply(chatID, text)
		return
	}
	series, err := h.store.UsageSeries(h.now().AddDate(0, 0, -days), 86400)
	if err != nil {
		h.logger.Warn().Err(err).Msg("usage series failed")
	} else if line := report.BusiestDay(series); line != "" {
		text += "\n\n" + line
	}
	h.reply(chatID, text)
	counts := make(map[string]int, len(stats))
	for c, st := range stats {
		counts[c] = st.Count
	}
	if img, err := finance.UsageChart(counts, days); err == nil {
		h.photo(chatID, "usage.png", fmt.Sprintf("Usage • last %d days", days), img)
	}
}

func (h *Handlers) handleHelp(chatID int64) {
	help := "Commands\n\n" +
		"- /analyze SYMBOL [window] - Risk metrics, category and advice with charts\n" +
		"- /compare S1 S2 ... [window] - Side-by-side metrics, indexed to 100\n" +
		"- /news SYMBOL - Latest headlines\n" +
		"- /explain SYMBOL [window] - AI commentary on the metrics\n" +
		"- /profile [Conservative|Moderate|Aggressive] - Show or set your risk profile\n" +
		"- /plan AMOUNT SIP YEARS - Save your investment plan\n" +
		"- /project [AMOUNT SIP YEARS [RATE%]] - Compounding projection\n" +
		"- /export - Projection as CSV\n" +
		"- /usage [days] - Command usage (default: 7)\n" +
		"\nWindows: 30d, 6w, 3m, 1y, 5y, custom or YYYY-MM-DD..YYYY-MM-DD (default: " + h.cfg.Defaults.Window + ")."
	h.reply(chatID, help)
}

func (h *Handlers) photo(chatID int64, name, caption string, img []byte) {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: name, Bytes: img})
	photo.Caption = caption
	h.send(photo)
}

func (h *Handlers) reply(chatID int64, text string) {
	h.send(tgbotapi.NewMessage(chatID, text))
}

func (h *Handlers) send(c tgbotapi.Chattable) {
	if _, err := h.api.Send(c); err != nil {
		h.logger.Warn().Err(err).Msg("send failed")
	}
}
