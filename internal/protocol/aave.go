package protocol

import "txnarrator/internal/narrate"

const (
	aaveV2DepositABI = `{"anonymous":false,"inputs":[
		{"indexed":true,"name":"reserve","type":"address"},
		{"indexed":false,"name":"user","type":"address"},
		{"indexed":true,"name":"onBehalfOf","type":"address"},
		{"indexed":false,"name":"amount","type":"uint256"},
		{"indexed":true,"name":"referral","type":"uint16"}],"name":"Deposit","type":"event"}`

	aaveV2BorrowABI = `{"anonymous":false,"inputs":[
		{"indexed":true,"name":"reserve","type":"address"},
		{"indexed":false,"name":"user","type":"address"},
		{"indexed":true,"name":"onBehalfOf","type":"address"},
		{"indexed":false,"name":"amount","type":"uint256"},
		{"indexed":false,"name":"borrowRateMode","type":"uint256"},
		{"indexed":false,"name":"borrowRate","type":"uint256"},
		{"indexed":true,"name":"referral","type":"uint16"}],"name":"Borrow","type":"event"}`

	aaveWithdrawABI = `{"anonymous":false,"inputs":[
		{"indexed":true,"name":"reserve","type":"address"},
		{"indexed":true,"name":"user","type":"address"},
		{"indexed":true,"name":"to","type":"address"},
		{"indexed":false,"name":"amount","type":"uint256"}],"name":"Withdraw","type":"event"}`

	aaveV2RepayABI = `{"anonymous":false,"inputs":[
		{"indexed":true,"name":"reserve","type":"address"},
		{"indexed":true,"name":"user","type":"address"},
		{"indexed":true,"name":"repayer","type":"address"},
		{"indexed":false,"name":"amount","type":"uint256"}],"name":"Repay","type":"event"}`

	aaveV2FlashLoanABI = `{"anonymous":false,"inputs":[
		{"indexed":true,"name":"target","type":"address"},
		{"indexed":true,"name":"initiator","type":"address"},
		{"indexed":true,"name":"asset","type":"address"},
		{"indexed":false,"name":"amount","type":"uint256"},
		{"indexed":false,"name":"premium","type":"uint256"},
		{"indexed":false,"name":"referralCode","type":"uint16"}],"name":"FlashLoan","type":"event"}`

	aaveV3SupplyABI = `{"anonymous":false,"inputs":[
		{"indexed":true,"name":"reserve","type":"address"},
		{"indexed":false,"name":"user","type":"address"},
		{"indexed":true,"name":"onBehalfOf","type":"address"},
		{"indexed":false,"name":"amount","type":"uint256"},
		{"indexed":true,"name":"referralCode","type":"uint16"}],"name":"Supply","type":"event"}`

	aaveV3BorrowABI = `{"anonymous":false,"inputs":[
		{"indexed":true,"name":"reserve","type":"address"},
		{"indexed":false,"name":"user","type":"address"},
		{"indexed":true,"name":"onBehalfOf","type":"address"},
		{"indexed":false,"name":"amount","type":"uint256"},
		{"indexed":false,"name":"interestRateMode","type":"uint8"},
		{"indexed":false,"name":"borrowRate","type":"uint256"},
		{"indexed":true,"name":"referralCode","type":"uint16"}],"name":"Borrow","type":"event"}`

	aaveV3RepayABI = `{"anonymous":false,"inputs":[
		{"indexed":true,"name":"reserve","type":"address"},
		{"indexed":true,"name":"user","type":"address"},
		{"indexed":true,"name":"repayer","type":"address"},
		{"indexed":false,"name":"amount","type":"uint256"},
		{"indexed":false,"name":"useATokens","type":"bool"}],"name":"Repay","type":"event"}`

	aaveV3FlashLoanABI = `{"anonymous":false,"inputs":[
		{"indexed":true,"name":"target","type":"address"},
		{"indexed":false,"name":"initiator","type":"address"},
		{"indexed":true,"name":"asset","type":"address"},
		{"indexed":false,"name":"amount","type":"uint256"},
		{"indexed":false,"name":"interestRateMode","type":"uint8"},
		{"indexed":false,"name":"premium","type":"uint256"},
		{"indexed":true,"name":"referralCode","type":"uint16"}],"name":"FlashLoan","type":"event"}`

	aaveV3CollateralEnabledABI = `{"anonymous":false,"inputs":[
		{"indexed":true,"name":"reserve","type":"address"},
		{"indexed":true,"name":"user","type":"address"}],"name":"ReserveUsedAsCollateralEnabled","type":"event"}`

	aaveV3CollateralDisabledABI = `{"anonymous":false,"inputs":[
		{"indexed":true,"name":"reserve","type":"address"},
		{"indexed":true,"name":"user","type":"address"}],"name":"ReserveUsedAsCollateralDisabled","type":"event"}`
)

// AaveV2 covers the v2 lending pool.
func AaveV2() narrate.Protocol {
	return narrate.Protocol{
		Name: "aave_v2",
		Handlers: []narrate.Handler{
			{ABI: aaveV2DepositABI, Interpret: singleAsset("Deposit", "reserve", "to")},
			{ABI: aaveV2BorrowABI, Interpret: singleAsset("Borrow", "reserve", "from")},
			{ABI: aaveWithdrawABI, Interpret: singleAsset("Withdraw", "reserve", "from")},
			{ABI: aaveV2RepayABI, Interpret: singleAsset("Repay", "reserve", "to")},
			{ABI: aaveV2FlashLoanABI, Interpret: singleAsset("Flashloan", "asset", "from")},
		},
	}
}

// AaveV3 covers the v3 pool. Withdraw shares its signature with v2.
func AaveV3() narrate.Protocol {
	return narrate.Protocol{
		Name: "aave_v3",
		Handlers: []narrate.Handler{
			{ABI: aaveV3SupplyABI, Interpret: singleAsset("Supply", "reserve", "to")},
			{ABI: aaveV3BorrowABI, Interpret: singleAsset("Borrow", "reserve", "from")},
			{ABI: aaveWithdrawABI, Interpret: singleAsset("Withdraw", "reserve", "from")},
			{ABI: aaveV3RepayABI, Interpret: singleAsset("Repay", "reserve", "to")},
			{ABI: aaveV3FlashLoanABI, Interpret: singleAsset("Flashloan", "asset", "from")},
			{ABI: aaveV3CollateralEnabledABI, Interpret: collateralToggle("Enable")},
			{ABI: aaveV3CollateralDisabledABI, Interpret: collateralToggle("Disable")},
		},
	}
}
