package statement

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spendlens/spendlens/internal/domain"
)

// Document-level failure conditions. Row-level noise never surfaces as an
// error; these abort the upload with a specific cause.
var (
	// ErrNotTextBased means the document yielded no usable text layer,
	// typically a scanned image.
	ErrNotTextBased = errors.New("no extractable text in PDF")
	// ErrTooComplex means the document exceeded the line cap.
	ErrTooComplex = errors.New("PDF exceeds the supported line count")
	// ErrNoTransactions means parsing completed but recognized nothing.
	ErrNoTransactions = errors.New("no transactions recognized in PDF")
)

const (
	// maxLines caps pathological documents before they exhaust memory.
	maxLines = 10000
	// minTextLength below this across the whole document signals a
	// scanned (image-only) PDF.
	minTextLength = 20
)

var (
	dateRe = regexp.MustCompile(`(?i)^(\d{1,2}/\d{1,2}(?:/\d{2,4})?|\d{4}-\d{2}-\d{2}|(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\.?\s+\d{1,2}(?:[,\s]+\d{4})?)\s`)

	amountRe = regexp.MustCompile(`[-\x{2212}]?\$?\s?[\d,]+\.\d{2}|\(\$?\s?[\d,]+\.\d{2}\)`)

	multiSpaceRe = regexp.MustCompile(`\s{2,}`)

	pageHeaderRe = regexp.MustCompile(`(?i)^page \d+`)
)

// Lines containing any of these (case-insensitive substring match) are
// statement boilerplate, not transactions.
var noisePatterns = []string{
	"opening balance",
	"closing balance",
	"beginning balance",
	"ending balance",
	"statement period",
	"account number",
	"account summary",
	"continued on",
	"continued from",
	"subtotal",
	"total debits",
	"total credits",
	"total charges",
	"total deposits",
	"total withdrawals",
	"total fees",
	"balance forward",
	"previous balance",
	"new balance",
	"interest charged",
	"minimum payment",
	"payment due",
	"thank you",
	"customer service",
}

func isNoiseLine(line string) bool {
	lower := strings.ToLower(line)
	if pageHeaderRe.MatchString(lower) {
		return true
	}
	for _, p := range noisePatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// Parse turns the positioned text of every page into the tabular shape
// consumed by normalize.ApplyMapping, with the fixed three-column header.
func Parse(pages [][]TextItem) (domain.TableData, error) {
	var allLines []string
	totalTextLength := 0

	for _, items := range pages {
		for _, item := range items {
			totalTextLength += len(item.Text)
		}
		allLines = append(allLines, ExtractLines(items)...)
		if len(allLines) > maxLines {
			return domain.TableData{}, ErrTooComplex
		}
	}

	if totalTextLength < minTextLength {
		return domain.TableData{}, ErrNotTextBased
	}

	txs := parseTransactionLines(allLines)
	if len(txs) == 0 {
		return domain.TableData{}, ErrNoTransactions
	}

	rows := make([][]string, len(txs))
	for i, tx := range txs {
		rows[i] = []string{tx.date, tx.description, strconv.FormatFloat(tx.amount, 'f', -1, 64)}
	}
	return domain.TableData{
		Headers: []string{"Date", "Description", "Amount"},
		Rows:    rows,
	}, nil
}

type rawTx struct {
	date        string
	description string
	amount      float64
}

// pendingTx is the single accumulator carried across the forward pass:
// a transaction whose description or amount has not been fully seen yet.
type pendingTx struct {
	date      string
	desc      string
	amount    float64
	hasAmount bool
}

// parseTransactionLines runs the line-oriented state machine. One pass,
// one pending slot: a leading date starts a transaction, continuation
// lines extend its description or supply its amount.
func parseTransactionLines(lines []string) []rawTx {
	var txs []rawTx
	var pending *pendingTx

	flush := func() {
		if pending != nil && pending.desc != "" {
			txs = append(txs, rawTx{date: pending.date, description: pending.desc, amount: pending.amount})
		}
		pending = nil
	}

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if isNoiseLine(line) {
			continue
		}

		if m := dateRe.FindStringSubmatchIndex(line); m != nil {
			flush()

			dateStr := line[m[2]:m[3]]
			rest := strings.TrimSpace(line[m[1]:])
			idxs := amountRe.FindAllStringIndex(rest, -1)

			if len(idxs) == 0 {
				pending = &pendingTx{date: normalizeDate(dateStr), desc: rest}
				continue
			}

			desc := strings.TrimSpace(multiSpaceRe.ReplaceAllString(rest[:idxs[0][0]], " "))
			amount := resolveAmounts(tokensAt(rest, idxs))

			if desc == "" {
				// Amount known, description expected on a continuation line.
				pending = &pendingTx{date: normalizeDate(dateStr), amount: amount, hasAmount: true}
				continue
			}

			txs = append(txs, rawTx{date: normalizeDate(dateStr), description: desc, amount: amount})
			continue
		}

		if pending == nil {
			continue
		}

		idxs := amountRe.FindAllStringIndex(line, -1)
		if len(idxs) == 0 {
			pending.desc = strings.TrimSpace(pending.desc + " " + strings.TrimSpace(line))
			continue
		}

		descPart := strings.TrimSpace(line[:idxs[0][0]])
		fullDesc := strings.TrimSpace(pending.desc + " " + descPart)

		// A pending amount from the date line takes priority over amounts
		// found on the continuation line.
		amount := pending.amount
		if !pending.hasAmount {
			amount = resolveAmounts(tokensAt(line, idxs))
		}

		if fullDesc != "" {
			txs = append(txs, rawTx{date: pending.date, description: fullDesc, amount: amount})
		}
		pending = nil
	}

	if pending != nil && pending.desc != "" && pending.amount != 0 {
		txs = append(txs, rawTx{date: pending.date, description: pending.desc, amount: pending.amount})
	}
	return txs
}

func tokensAt(s string, idxs [][]int) []string {
	tokens := make([]string, len(idxs))
	for i, loc := range idxs {
		tokens[i] = s[loc[0]:loc[1]]
	}
	return tokens
}

// resolveAmounts picks the signed amount when a line carries several
// monetary tokens, the common separate debit/credit/balance column layout.
// Two tokens are read as a (debit, credit) pair; when both are nonzero the
// last token is used verbatim, a known heuristic gap for lines that carry
// a real debit and credit together.
func resolveAmounts(tokens []string) float64 {
	if len(tokens) == 1 {
		return parseAmountToken(tokens[0])
	}

	if len(tokens) == 2 {
		a := parseAmountToken(tokens[0])
		b := parseAmountToken(tokens[1])
		if a != 0 && b == 0 {
			return -math.Abs(a)
		}
		if a == 0 && b != 0 {
			return math.Abs(b)
		}
	}

	return parseAmountToken(tokens[len(tokens)-1])
}

func parseAmountToken(raw string) float64 {
	s := strings.TrimSpace(raw)

	parenNeg := strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")")
	if parenNeg {
		s = s[1 : len(s)-1]
	}

	minusNeg := strings.HasPrefix(s, "-") || strings.HasPrefix(s, "−")

	s = strings.Map(func(r rune) rune {
		switch r {
		case '-', '−', '$', ',', ' ':
			return -1
		}
		return r
	}, s)

	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	if parenNeg || minusNeg {
		return -value
	}
	return value
}

var monthNumbers = map[string]string{
	"jan": "01", "feb": "02", "mar": "03", "apr": "04",
	"may": "05", "jun": "06", "jul": "07", "aug": "08",
	"sep": "09", "oct": "10", "nov": "11", "dec": "12",
}

var (
	isoRe       = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	slashFullRe = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	slashYYRe   = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{2})$`)
	slashMDRe   = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})$`)
	namedRe     = regexp.MustCompile(`(?i)^(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\.?\s+(\d{1,2})(?:\s+(\d{4}))?$`)
)

// normalizeDate converts the date token formats seen on statement lines to
// ISO form. Statement layouts assume month/day order; a token without a
// year resolves to the current year. Unrecognized tokens pass through and
// are dropped later by row normalization.
func normalizeDate(raw string) string {
	trimmed := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")

	if isoRe.MatchString(trimmed) {
		return trimmed
	}

	if m := slashFullRe.FindStringSubmatch(trimmed); m != nil {
		mm, _ := strconv.Atoi(m[1])
		dd, _ := strconv.Atoi(m[2])
		return fmt.Sprintf("%s-%02d-%02d", m[3], mm, dd)
	}

	if m := slashYYRe.FindStringSubmatch(trimmed); m != nil {
		mm, _ := strconv.Atoi(m[1])
		dd, _ := strconv.Atoi(m[2])
		yy, _ := strconv.Atoi(m[3])
		century := 2000
		if yy >= 50 {
			century = 1900
		}
		return fmt.Sprintf("%04d-%02d-%02d", century+yy, mm, dd)
	}

	if m := slashMDRe.FindStringSubmatch(trimmed); m != nil {
		mm, _ := strconv.Atoi(m[1])
		dd, _ := strconv.Atoi(m[2])
		return fmt.Sprintf("%d-%02d-%02d", time.Now().Year(), mm, dd)
	}

	if m := namedRe.FindStringSubmatch(trimmed); m != nil {
		month := monthNumbers[strings.ToLower(m[1][:3])]
		dd, _ := strconv.Atoi(m[2])
		year := m[3]
		if year == "" {
			year = strconv.Itoa(time.Now().Year())
		}
		return fmt.Sprintf("%s-%s-%02d", year, month, dd)
	}

	return trimmed
}
