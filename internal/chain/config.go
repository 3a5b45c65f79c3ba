package chain

import "strings"

// SolanaID is the chain identifier routed to the Solana token endpoint.
const SolanaID = "solana"

// FallbackVersion identifies the built-in chain list. Bump it whenever
// FallbackChains changes.
const FallbackVersion = "2025.05"

// Chain identifies a network supported by the security API.
// IDs are decimal chain ids for EVM networks and lowercase names otherwise.
type Chain struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// IsSolana reports whether the chain uses the Solana endpoint.
func (c Chain) IsSolana() bool {
	return IsSolanaID(c.ID)
}

// IsSolanaID reports whether id names the Solana chain.
func IsSolanaID(id string) bool {
	return strings.EqualFold(strings.TrimSpace(id), SolanaID)
}

// Label renders "Name (ID)", or just the ID when the name is unknown.
func (c Chain) Label() string {
	if c.Name == "" {
		return c.ID
	}
	return c.Name + " (" + c.ID + ")"
}

// FallbackChains returns the built-in chain list used when the live list
// cannot be fetched. The returned slice is a fresh copy.
func FallbackChains() []Chain {
	out := make([]Chain, len(fallbackChains))
	copy(out, fallbackChains)
	return out
}

var fallbackChains = []Chain{
	{ID: "1", Name: "Ethereum"},
	{ID: "56", Name: "BSC"},
	{ID: "42161", Name: "Arbitrum"},
	{ID: "137", Name: "Polygon"},
	{ID: "solana", Name: "Solana"},
	{ID: "204", Name: "opBNB"},
	{ID: "324", Name: "zkSync Era"},
	{ID: "59144", Name: "Linea Mainnet"},
	{ID: "8453", Name: "Base"},
	{ID: "5000", Name: "Mantle"},
	{ID: "534352", Name: "Scroll"},
	{ID: "10", Name: "Optimism"},
	{ID: "43114", Name: "Avalanche"},
	{ID: "250", Name: "Fantom"},
	{ID: "25", Name: "Cronos"},
	{ID: "128", Name: "HECO"},
	{ID: "100", Name: "Gnosis"},
	{ID: "tron", Name: "Tron"},
	{ID: "321", Name: "KCC"},
	{ID: "201022", Name: "FON"},
	{ID: "42766", Name: "ZKFair"},
	{ID: "1868", Name: "Soneium"},
	{ID: "1514", Name: "Story"},
	{ID: "146", Name: "Sonic"},
	{ID: "2741", Name: "Abstract"},
	{ID: "177", Name: "Hashkey"},
	{ID: "80094", Name: "Berachain"},
	{ID: "10143", Name: "Monad"},
	{ID: "480", Name: "World Chain"},
	{ID: "2818", Name: "Morph"},
	{ID: "1625", Name: "Gravity"},
	{ID: "185", Name: "Mint"},
	{ID: "48899", Name: "Zircuit"},
	{ID: "196", Name: "X Layer Mainnet"},
	{ID: "810180", Name: "zkLink Nova"},
	{ID: "200901", Name: "Bitlayer Mainnet"},
	{ID: "4200", Name: "Merlin"},
	{ID: "169", Name: "Manta Pacific"},
	{ID: "81457", Name: "Blast"},
}
