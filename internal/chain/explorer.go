package chain

import "fmt"

const explorerBase = "https://explorer.solana.com"

func clusterQuery(cluster string) string {
	switch cluster {
	case "", "mainnet", "mainnet-beta":
		return ""
	}
	return "?cluster=" + cluster
}

func TxURL(sig, cluster string) string {
	return fmt.Sprintf("%s/tx/%s%s", explorerBase, sig, clusterQuery(cluster))
}

func AddressURL(addr, cluster string) string {
	return fmt.Sprintf("%s/address/%s%s", explorerBase, addr, clusterQuery(cluster))
}
