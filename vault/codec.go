package vault

import "encoding/binary"

// DepositDataLen 存款指令数据长度：u64 小端金额
const DepositDataLen = 8

// ParseDepositData 解码存款金额
func ParseDepositData(data []byte) (uint64, error) {
	if len(data) != DepositDataLen {
		return 0, ErrMalformedInstructionData
	}
	amount := binary.LittleEndian.Uint64(data)
	if amount == 0 {
		return 0, ErrZeroAmount
	}
	return amount, nil
}

// EncodeDepositData 客户端构造存款数据
func EncodeDepositData(amount uint64) []byte {
	b := make([]byte, DepositDataLen)
	binary.LittleEndian.PutUint64(b, amount)
	return b
}
