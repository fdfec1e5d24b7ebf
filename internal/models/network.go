package models

// NativeCurrency describes a chain's gas token for wallet_addEthereumChain
type NativeCurrency struct {
	Name     string `yaml:"name" json:"name"`
	Symbol   string `yaml:"symbol" json:"symbol"`
	Decimals int    `yaml:"decimals" json:"decimals"`
}

// Network is one entry of the networks file
type Network struct {
	Name             string         `yaml:"name"`
	ChainID          uint64         `yaml:"chain_id"`
	ChainName        string         `yaml:"chain_name"`
	RPCURL           string         `yaml:"rpc_url"`
	Currency         NativeCurrency `yaml:"currency"`
	BlockExplorerURL string         `yaml:"block_explorer_url"`
	TokenAddress     string         `yaml:"token_address"`
}
