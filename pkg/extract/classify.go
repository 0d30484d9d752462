package extract

import (
	"regexp"
	"strings"

	"github.com/cloudflare/ahocorasick"
	"github.com/shopspring/decimal"
)

// boilerplateREs strip reference numbers, masked account tails, and generic
// payment-channel prefixes that carry no merchant signal.
var boilerplateREs = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bref(?:erence)?\s*#?\s*\d+\b`),
	regexp.MustCompile(`(?i)\b(?:conf(?:irmation)?|auth)\s*#?\s*[0-9A-Z]{4,}\b`),
	regexp.MustCompile(`(?i)\b(?:account|acct|card)\s+ending(?:\s+in)?\s+\d{2,4}\b`),
	regexp.MustCompile(`[xX*]{2,}\d{2,4}\b`),
	regexp.MustCompile(`(?i)^(?:online|web|mobile)\s+(?:payment|pmt)\s*-?\s*`),
	regexp.MustCompile(`(?i)\brecurring\s+payment\b`),
}

// abbreviations is an ordered expansion table applied with word boundaries.
var abbreviations = []struct {
	re   *regexp.Regexp
	full string
}{
	{regexp.MustCompile(`(?i)\bPMT\b`), "Payment"},
	{regexp.MustCompile(`(?i)\bXFER\b`), "Transfer"},
	{regexp.MustCompile(`(?i)\bTFR\b`), "Transfer"},
	{regexp.MustCompile(`(?i)\bDEP\b`), "Deposit"},
	{regexp.MustCompile(`(?i)\bW/?D\b`), "Withdrawal"},
	{regexp.MustCompile(`(?i)\bWDL\b`), "Withdrawal"},
	{regexp.MustCompile(`(?i)\bINT\b`), "Interest"},
	{regexp.MustCompile(`(?i)\bCHK\b`), "Check"},
	{regexp.MustCompile(`(?i)\bSVC\b`), "Service"},
	{regexp.MustCompile(`(?i)\bTXN\b`), "Transaction"},
	{regexp.MustCompile(`(?i)\bPYMT\b`), "Payment"},
}

var (
	descAllowRE  = regexp.MustCompile(`[^A-Za-z0-9 \-&/.#]+`)
	multiSpaceRE = regexp.MustCompile(`\s{2,}`)
	anyAlnumRE   = regexp.MustCompile(`[A-Za-z0-9]`)
)

// CleanDescription strips boilerplate, expands statement abbreviations, and
// restricts the result to the description alphabet. An all-symbol remainder
// collapses to the empty string.
func CleanDescription(raw string) string {
	s := raw
	for _, re := range boilerplateREs {
		s = re.ReplaceAllString(s, " ")
	}
	for _, ab := range abbreviations {
		s = ab.re.ReplaceAllString(s, ab.full)
	}
	s = descAllowRE.ReplaceAllString(s, " ")
	s = multiSpaceRE.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	if !anyAlnumRE.MatchString(s) {
		return ""
	}
	return s
}

// Direction keyword sets. All matching is word-boundary to avoid partial-word
// hits ("tow" must not read as "to").
var (
	p2pFromRE    = regexp.MustCompile(`(?i)\bfrom\b`)
	p2pToRE      = regexp.MustCompile(`(?i)\b(?:to|payment)\b`)
	investmentRE = regexp.MustCompile(`(?i)\b(?:401k|403b|ira|roth|retirement|investment|brokerage|vanguard|fidelity|schwab)\b`)
	incomeRE     = regexp.MustCompile(`(?i)\b(?:payroll|direct deposit|salary|paycheck|interest earned|refund|reimbursement|cashback|cash back|dividend|deposit)\b`)
	expenseRE    = regexp.MustCompile(`(?i)\b(?:purchase|withdrawal|fee|charge|debit|bill)\b`)
)

// ClassifyType decides income vs expense. A negative amount is an expense
// unconditionally; otherwise direction keywords are consulted in priority
// order before falling back to the amount sign.
func ClassifyType(desc string, amount decimal.Decimal) TxType {
	if amount.IsNegative() {
		return TxExpense
	}
	switch {
	case p2pFromRE.MatchString(desc):
		return TxIncome
	case p2pToRE.MatchString(desc):
		return TxExpense
	case investmentRE.MatchString(desc):
		// Retirement and brokerage movements count as savings inflow.
		return TxIncome
	case incomeRE.MatchString(desc):
		return TxIncome
	case expenseRE.MatchString(desc):
		return TxExpense
	}
	return TxIncome
}

// categoryRule maps keywords to an expense category. Earlier rules win:
// credit-card-payment phrases outrank every merchant group so a "TARGET CARD
// PAYMENT" row never lands in Shopping.
type categoryRule struct {
	Category string
	Keywords []string
}

var categoryRules = []categoryRule{
	{"Credit Card Payment", []string{"credit card payment", "card payment", "cardmember payment", "autopay", "e-payment"}},
	{"Housing", []string{"rent", "mortgage", "hoa", "landlord", "apartment", "lease"}},
	{"Groceries", []string{"walmart", "wal-mart", "kroger", "safeway", "aldi", "trader joe", "whole foods", "costco", "publix", "heb", "grocery", "supermarket"}},
	{"Utilities", []string{"electric", "water bill", "gas bill", "utility", "internet", "comcast", "xfinity", "verizon", "at&t", "t-mobile", "sewer", "power co"}},
	{"Transportation", []string{"uber", "lyft", "shell", "chevron", "exxon", "fuel", "gas station", "parking", "toll", "transit", "metro", "amtrak"}},
	{"Entertainment", []string{"netflix", "spotify", "hulu", "disney", "cinema", "theater", "steam", "playstation", "xbox", "concert", "ticketmaster"}},
	{"Healthcare", []string{"pharmacy", "cvs", "walgreens", "dental", "clinic", "hospital", "medical", "urgent care", "optometry"}},
	{"Shopping", []string{"amazon", "target", "best buy", "ebay", "etsy", "macys", "nordstrom", "clothing", "marshalls"}},
	{"Education", []string{"tuition", "university", "college", "udemy", "coursera", "textbook", "school dist"}},
	{"Home Improvement", []string{"home depot", "lowes", "ace hardware", "menards", "ikea"}},
	{"Personal Care", []string{"salon", "spa ", "barber", "gym", "fitness", "cosmetics"}},
	{"Insurance", []string{"insurance", "geico", "allstate", "state farm", "progressive", "premium"}},
	{"Childcare", []string{"daycare", "childcare", "babysit", "preschool"}},
	{"Gifts & Donations", []string{"donation", "charity", "gofundme", "tithes"}},
}

const (
	CategoryIncome       = "Income"
	CategoryOtherExpense = "Other Expenses"
)

// Categorizer assigns expense categories with one multi-pattern pass over
// the description. The keyword table stays data; the matcher is built from
// it once at startup.
type Categorizer struct {
	matcher  *ahocorasick.Matcher
	ruleIdx  []int // pattern index -> rule index
	patterns []string
}

// NewCategorizer compiles the category keyword table.
func NewCategorizer() *Categorizer {
	c := &Categorizer{}
	for ri, rule := range categoryRules {
		for _, kw := range rule.Keywords {
			c.patterns = append(c.patterns, strings.ToLower(kw))
			c.ruleIdx = append(c.ruleIdx, ri)
		}
	}
	c.matcher = ahocorasick.NewStringMatcher(c.patterns)
	return c
}

// Category returns the taxonomy label for a transaction. Income is always
// "Income"; an expense falls to the highest-priority rule whose keyword
// occurs in the description, else "Other Expenses".
func (c *Categorizer) Category(desc string, t TxType) string {
	if t == TxIncome {
		return CategoryIncome
	}
	hits := c.matcher.Match([]byte(strings.ToLower(desc)))
	if len(hits) == 0 {
		return CategoryOtherExpense
	}
	best := -1
	for _, h := range hits {
		ri := c.ruleIdx[h]
		if best == -1 || ri < best {
			best = ri
		}
	}
	return categoryRules[best].Category
}
