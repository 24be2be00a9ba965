package models

// Address 账单/收货地址
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Empty 判断地址是否为空
func (a Address) Empty() bool {
	return a.Street == "" && a.City == "" && a.PostalCode == "" && a.Country == ""
}

// Account 订单平台账户信息
type Account struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	AccountNumber   string  `json:"account_number,omitempty"`
	BillingAddress  Address `json:"billing_address"`
	ShippingAddress Address `json:"shipping_address"`
}

// Contract 账户合同
type Contract struct {
	ID             string `json:"id"`
	AccountID      string `json:"account_id"`
	ContractNumber string `json:"contract_number"`
	Status         string `json:"status"`
	StartDate      string `json:"start_date,omitempty"`
}
