// Package report turns security reports into ordered, labeled sections and
// encodes them for chat cards and plain text.
package report

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/yolodolo42/safebot/internal/security"
)

const (
	Title         = "🔍 Token Security Report"
	NoResultTitle = "❌ Unable to fetch security analysis"

	// MaxHolders caps the holder section.
	MaxHolders = 10
)

// Section titles, in output order.
const (
	SectionAddress  = "Contract Address"
	SectionContract = "Contract Security"
	SectionTrading  = "Trading Security"
	SectionInfo     = "Token Info"
	SectionDEX      = "DEX Info"
	SectionLP       = "Top 10 LP Holders"
	SectionHolders  = "Top 10 Holders"
	SectionAdvanced = "Advanced Info"
)

// State is the display state of a boolean-like field.
type State int

const (
	Unknown State = iota
	Yes
	No
)

// Normalize maps 1, "1" and true to Yes, 0, "0" and false to No, and
// everything else to Unknown.
func Normalize(v security.Value) State {
	set, ok := v.Flag()
	switch {
	case !ok:
		return Unknown
	case set:
		return Yes
	default:
		return No
	}
}

func (s State) String() string {
	switch s {
	case Yes:
		return "✅"
	case No:
		return "❌"
	default:
		return ""
	}
}

// Line is one "label: value" row. Lines without a label print the value alone.
type Line struct {
	Label string
	Value string
}

func (l Line) String() string {
	if l.Label == "" {
		return l.Value
	}
	return l.Label + ": " + l.Value
}

// Section is a titled group of lines.
type Section struct {
	Title string
	Lines []Line
}

// Document is the formatted report.
type Document struct {
	Title    string
	Sections []Section
}

// Empty reports whether the document is the "no result" document.
func (d Document) Empty() bool {
	return len(d.Sections) == 0
}

// Format builds the document for r. A nil or empty report yields the fixed
// "no result" document. Addresses are emitted in sorted order.
func Format(r *security.Report) Document {
	if r.Empty() {
		return Document{Title: NoResultTitle}
	}

	doc := Document{Title: Title}
	for _, addr := range r.Addresses() {
		tok := r.Tokens[addr]
		if tok == nil {
			continue
		}
		doc.Sections = append(doc.Sections, formatToken(r.ChainID, addr, tok)...)
	}
	if len(doc.Sections) == 0 {
		return Document{Title: NoResultTitle}
	}
	return doc
}

func formatToken(chainID, addr string, t *security.Token) []Section {
	sections := []Section{
		{Title: SectionAddress, Lines: []Line{{Value: addr}, {Label: "Chain", Value: chainID}}},
		contractSection(t),
		tradingSection(t),
		infoSection(t),
	}
	if s, ok := dexSection(t); ok {
		sections = append(sections, s)
	}
	if s, ok := holderSection(t); ok {
		sections = append(sections, s)
	}
	return append(sections, advancedSection(t))
}

// lines collects rows, dropping any whose value is empty.
type lines []Line

func (ls *lines) flag(label string, v security.Value) {
	if s := Normalize(v); s != Unknown {
		*ls = append(*ls, Line{Label: label, Value: s.String()})
	}
}

func (ls *lines) authority(label string, a security.Authority) {
	ls.flag(label, a.Status)
}

func (ls *lines) text(label string, v security.Value) {
	if !v.Present() {
		return
	}
	if s := strings.TrimSpace(v.String()); s != "" {
		*ls = append(*ls, Line{Label: label, Value: s})
	}
}

func (ls *lines) percent(label string, v security.Value) {
	if s := percent(v); s != "" {
		*ls = append(*ls, Line{Label: label, Value: s})
	}
}

func (ls *lines) usd(label string, v security.Value) {
	if s := strings.TrimSpace(v.String()); v.Present() && s != "" {
		*ls = append(*ls, Line{Label: label, Value: "$" + s})
	}
}

// percent renders a 0..1 fraction as a percentage. Non-numeric text is kept.
func percent(v security.Value) string {
	s := strings.TrimSpace(v.String())
	if !v.Present() || s == "" {
		return ""
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return s
	}
	return d.Shift(2).StringFixed(2) + "%"
}

func contractSection(t *security.Token) Section {
	var ls lines
	ls.flag("Open Source", t.IsOpenSource)
	ls.flag("Proxy", t.IsProxy)
	ls.flag("Mintable", t.IsMintable)
	ls.text("Owner Address", t.OwnerAddress)
	ls.flag("Can Take Back Ownership", t.CanTakeBackOwnership)
	ls.flag("Owner Can Change Balance", t.OwnerChangeBalance)
	ls.flag("Hidden Owner", t.HiddenOwner)
	ls.flag("Self-destruct", t.Selfdestruct)
	ls.flag("External Call", t.ExternalCall)
	ls.flag("Gas Abuse", t.GasAbuse)
	ls.authority("Freezable", t.Freezable)
	ls.authority("Closable", t.Closable)
	ls.authority("Metadata Mutable", t.MetadataMutable)
	ls.authority("Balance Mutable", t.BalanceMutableAuthority)
	ls.authority("Default Account State Upgradable", t.DefaultAccountStateUpgradable)
	ls.authority("Transfer Fee Upgradable", t.TransferFeeUpgradable)
	ls.authority("Transfer Hook Upgradable", t.TransferHookUpgradable)
	return Section{Title: SectionContract, Lines: ls}
}

func tradingSection(t *security.Token) Section {
	var ls lines
	ls.flag("In DEX", t.IsInDex)
	ls.percent("Buy Tax", t.BuyTax)
	ls.percent("Sell Tax", t.SellTax)
	ls.percent("Transfer Tax", t.TransferTax)
	ls.flag("Cannot Buy", t.CannotBuy)
	ls.flag("Cannot Sell All", t.CannotSellAll)
	ls.flag("Slippage Modifiable", t.SlippageModifiable)
	ls.flag("Honeypot", t.IsHoneypot)
	ls.flag("Transfer Pausable", t.TransferPausable)
	ls.flag("Blacklist", t.IsBlacklisted)
	ls.flag("Whitelist", t.IsWhitelisted)
	ls.flag("Anti-Whale", t.IsAntiWhale)
	ls.flag("Anti-Whale Modifiable", t.AntiWhaleModifiable)
	ls.flag("Trading Cooldown", t.TradingCooldown)
	ls.flag("Personal Slippage Modifiable", t.PersonalSlippageModifiable)
	ls.flag("Non-transferable", t.NonTransferable)
	ls.text("Default Account State", t.DefaultAccountState)
	if rate, ok := t.TransferFee["fee_rate"]; ok {
		ls.percent("Transfer Fee", security.Str(fmt.Sprint(rate)))
	}
	return Section{Title: SectionTrading, Lines: ls}
}

func infoSection(t *security.Token) Section {
	var ls lines
	ls.text("Name", t.TokenName)
	ls.text("Symbol", t.TokenSymbol)
	ls.text("Description", t.Description)
	ls.text("Holders", t.HolderCount)
	ls.text("Total Supply", t.TotalSupply)
	return Section{Title: SectionInfo, Lines: ls}
}

// dexSection summarizes only the first listed DEX.
func dexSection(t *security.Token) (Section, bool) {
	if len(t.DEX) == 0 {
		return Section{}, false
	}
	d := t.DEX[0]
	var ls lines
	ls.text("DEX", d.Name)
	ls.text("Pair", d.Pair)
	ls.usd("Liquidity", d.Liquidity)
	ls.usd("Price", d.Price)
	ls.usd("TVL", d.TVL)
	ls.percent("Fee Rate", d.FeeRate)
	if d.Day != nil {
		ls.usd("24h Volume", d.Day.Volume)
		ls.usd("24h High", d.Day.PriceMax)
		ls.usd("24h Low", d.Day.PriceMin)
	}
	return Section{Title: SectionDEX, Lines: ls}, true
}

// holderSection prefers LP holders and falls back to token holders.
func holderSection(t *security.Token) (Section, bool) {
	title, list := SectionLP, t.LPHolders
	if len(list) == 0 {
		title, list = SectionHolders, t.Holders
	}
	if len(list) == 0 {
		return Section{}, false
	}
	if len(list) > MaxHolders {
		list = list[:MaxHolders]
	}

	ls := make([]Line, 0, len(list))
	for i, h := range list {
		parts := []string{h.Address}
		if h.Address == "" {
			parts[0] = "unknown"
		}
		if b := strings.TrimSpace(h.Balance.String()); b != "" {
			parts = append(parts, "Balance: "+b)
		}
		if p := percent(h.Percent); p != "" {
			parts = append(parts, "Share: "+p)
		}
		if s := Normalize(h.IsLocked); s != Unknown {
			parts = append(parts, "Locked: "+s.String())
		}
		if tag := strings.TrimSpace(h.Tag.String()); tag != "" {
			parts = append(parts, "Tag: "+tag)
		}
		ls = append(ls, Line{Label: fmt.Sprintf("#%d", i+1), Value: strings.Join(parts, " | ")})
	}
	return Section{Title: title, Lines: ls}, true
}

func advancedSection(t *security.Token) Section {
	var ls lines
	ls.flag("Airdrop Scam", t.IsAirdropScam)
	ls.flag("Trust List", t.TrustList)
	ls.flag("Trusted Token", t.TrustedToken)
	ls.text("Other Potential Risks", t.OtherPotentialRisks)
	ls.text("Note", t.Note)
	authorityAddresses(&ls, "Mint Authority", t.Mintable.Addresses)
	authorityAddresses(&ls, "Freeze Authority", t.Freezable.Addresses)
	authorityAddresses(&ls, "Metadata Upgrade Authority", t.MetadataMutable.Addresses)
	authorityAddresses(&ls, "Creator", t.Creators)
	return Section{Title: SectionAdvanced, Lines: ls}
}

func authorityAddresses(ls *lines, label string, addrs []security.AuthorityAddress) {
	for _, a := range addrs {
		if a.Address == "" {
			continue
		}
		v := a.Address
		if Normalize(a.MaliciousAddress) == Yes {
			v += " ⚠️ malicious"
		}
		*ls = append(*ls, Line{Label: label, Value: v})
	}
}
