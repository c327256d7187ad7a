package shipping

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

// Rate is the delivery price a store charges for one governorate.
type Rate struct {
	StoreID     uuid.UUID       `json:"store_id"`
	Governorate string          `json:"governorate"`
	Price       decimal.Decimal `json:"price"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Governorates lists Egypt's governorates, the keys merchants price
// delivery against.
var Governorates = []string{
	"القاهرة", "الجيزة", "الإسكندرية", "القليوبية", "الدقهلية", "الشرقية",
	"الغربية", "المنوفية", "البحيرة", "كفر الشيخ", "دمياط", "بورسعيد",
	"الإسماعيلية", "السويس", "شمال سيناء", "جنوب سيناء", "الفيوم", "بني سويف",
	"المنيا", "أسيوط", "سوهاج", "قنا", "الأقصر", "أسوان", "البحر الأحمر",
	"الوادي الجديد", "مطروح",
}

// NormaliseGovernorate trims, collapses inner whitespace and applies NFC so
// that the same name typed on different keyboards maps to one key.
func NormaliseGovernorate(name string) string {
	return norm.NFC.String(strings.Join(strings.Fields(name), " "))
}
