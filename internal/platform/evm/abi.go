package evm

// Minimal ABI fragments for the three contracts this service talks to.

const presaleABI = `[
	{
		"name": "purchasePresale",
		"type": "function",
		"stateMutability": "nonpayable",
		"inputs": [
			{"name": "presaleId", "type": "uint256"},
			{"name": "amount", "type": "uint256"}
		],
		"outputs": []
	}
]`

const factoryABI = `[
	{
		"name": "createDMT",
		"type": "function",
		"stateMutability": "nonpayable",
		"inputs": [
			{"name": "paymentToken", "type": "address"},
			{"name": "pricePerToken", "type": "uint256"},
			{"name": "startTime", "type": "uint64"},
			{"name": "endTime", "type": "uint64"}
		],
		"outputs": []
	},
	{
		"name": "DMTCreated",
		"type": "event",
		"anonymous": false,
		"inputs": [
			{"name": "dmt", "type": "address", "indexed": false}
		]
	}
]`

const erc20ABI = `[
	{
		"name": "balanceOf",
		"type": "function",
		"stateMutability": "view",
		"inputs": [{"name": "account", "type": "address"}],
		"outputs": [{"name": "", "type": "uint256"}]
	}
]`
