package commands

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/wonny/optsignals/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// signalColumns is the scan table layout
var (
	signalColumns = []string{"SYMBOL", "TIME", "SIDE", "STRIKE", "SPOT", "DELTA", "GAMMA", "THETA", "VEGA", "OI", "IV", "CONF", "SOURCE"}
	signalWidths  = []int{10, 8, 13, 8, 10, 7, 9, 9, 8, 8, 6, 5, 13}
)

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Println()
	fmt.Printf("⚠️  %s\n", message)
	fmt.Println()
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	fmt.Printf("ℹ️  %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	// Separator line
	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Println(strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Printf("%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}

// signalRow renders one signal for the scan table
func signalRow(s *contracts.Signal) []string {
	return []string{
		s.Symbol,
		s.Timestamp,
		s.Side,
		fmt.Sprintf("%.0f", s.Strike),
		fmt.Sprintf("%.2f", s.Spot),
		fmt.Sprintf("%.4f", s.Delta),
		fmt.Sprintf("%.6f", s.Gamma),
		fmt.Sprintf("%.4f", s.Theta),
		fmt.Sprintf("%.4f", s.Vega),
		fmt.Sprintf("%d", s.OpenInterest),
		fmt.Sprintf("%.2f", s.ImpliedVolatility),
		fmt.Sprintf("%.2f", s.Confidence),
		string(s.DataSource),
	}
}

// PrintSignals prints signals as a table
func PrintSignals(signals []*contracts.Signal) {
	PrintTableHeader(signalColumns, signalWidths)
	for _, s := range signals {
		PrintTableRow(signalRow(s), signalWidths)
	}
}

// httpHandler adapts a handler func for optional router slots
func httpHandler(fn func(http.ResponseWriter, *http.Request)) http.Handler {
	return http.HandlerFunc(fn)
}
