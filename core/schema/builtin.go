package schema

// Built-in partition names.
const (
	PartitionClients  = "clients"
	PartitionOrders   = "orders"
	PartitionInvoices = "invoices"
	PartitionStock    = "stock"
)

// Order statuses offered by the orders schema.
var OrderStatuses = []string{"Nowe", "W toku", "Czeka na części", "Gotowe", "Anulowane"}

// Invoice statuses offered by the invoices schema.
var InvoiceStatuses = []string{"Wystawiona", "Opłacona", "Przeterminowana", "Anulowana"}

// BuiltIn describes one of the fixed partitions and how its records are
// projected for search and list filtering.
type BuiltIn struct {
	Partition string
	Name      string
	Fields    []FieldDescriptor

	// HitType labels quick-search hits from this partition.
	HitType string

	// SearchKeys is the quick-search haystack projection.
	SearchKeys []string

	// FilterKeys is the list-filter haystack projection.
	FilterKeys []string

	// TitleKey is shown as the hit title, TitleFallback when it is blank.
	TitleKey      string
	TitleFallback string

	// SubtitleKeys are tried in order; the first non-blank value is the subtitle.
	SubtitleKeys []string
}

// Schema returns the partition schema in module form.
func (b BuiltIn) Schema() ModuleSchema {
	return ModuleSchema{Slug: b.Partition, Name: b.Name, Fields: b.Fields}.Clone()
}

var builtIns = []BuiltIn{
	{
		Partition: PartitionClients,
		Name:      "Klienci",
		Fields: []FieldDescriptor{
			{Key: "name", Label: "Nazwa / Imię", Type: FieldText, Required: true},
			{Key: "phone", Label: "Telefon", Type: FieldText},
			{Key: "email", Label: "E-mail", Type: FieldText},
			{Key: "city", Label: "Miasto", Type: FieldText},
			{Key: "address", Label: "Adres", Type: FieldText},
			{Key: "note", Label: "Notatka", Type: FieldTextarea},
		},
		HitType:       "Klient",
		SearchKeys:    []string{"name", "phone", "email", "note"},
		FilterKeys:    []string{"name", "phone", "email", "city", "note"},
		TitleKey:      "name",
		TitleFallback: "(bez nazwy)",
		SubtitleKeys:  []string{"phone", "email"},
	},
	{
		Partition: PartitionOrders,
		Name:      "Zlecenia",
		Fields: []FieldDescriptor{
			{Key: "code", Label: "Numer zlecenia", Type: FieldText, Required: true},
			{Key: "title", Label: "Opis / tytuł", Type: FieldText, Required: true},
			{Key: "clientId", Label: "Klient", Type: FieldSelect, Options: []Option{}, OptionsFrom: PartitionClients},
			{Key: "status", Label: "Status", Type: FieldSelect, Required: true, Options: SelectOptions(OrderStatuses...)},
			{Key: "amount", Label: "Wycena (PLN)", Type: FieldNumber},
			{Key: "deadline", Label: "Termin", Type: FieldDate},
			{Key: "note", Label: "Notatka", Type: FieldTextarea},
		},
		HitType:       "Zlecenie",
		SearchKeys:    []string{"code", "status", "title", "note"},
		FilterKeys:    []string{"code", "title", "status", "note"},
		TitleKey:      "code",
		TitleFallback: "(bez numeru)",
		SubtitleKeys:  []string{"title"},
	},
	{
		Partition: PartitionInvoices,
		Name:      "Faktury",
		Fields: []FieldDescriptor{
			{Key: "number", Label: "Numer faktury", Type: FieldText, Required: true},
			{Key: "status", Label: "Status", Type: FieldSelect, Required: true, Options: SelectOptions(InvoiceStatuses...)},
			{Key: "amount", Label: "Kwota (PLN)", Type: FieldNumber, Required: true},
			{Key: "issuedAt", Label: "Data wystawienia", Type: FieldDate},
			{Key: "note", Label: "Notatka", Type: FieldTextarea},
		},
		HitType:       "Faktura",
		SearchKeys:    []string{"number", "status", "note"},
		FilterKeys:    []string{"number", "status", "note"},
		TitleKey:      "number",
		TitleFallback: "(bez numeru)",
		SubtitleKeys:  []string{"status"},
	},
	{
		Partition: PartitionStock,
		Name:      "Magazyn",
		Fields: []FieldDescriptor{
			{Key: "sku", Label: "SKU / Kod", Type: FieldText, Required: true},
			{Key: "name", Label: "Nazwa", Type: FieldText, Required: true},
			{Key: "qty", Label: "Ilość", Type: FieldNumber, Required: true},
			{Key: "location", Label: "Lokalizacja", Type: FieldText},
			{Key: "note", Label: "Notatka", Type: FieldTextarea},
		},
		HitType:       "Magazyn",
		SearchKeys:    []string{"sku", "name", "location"},
		FilterKeys:    []string{"sku", "name", "location", "note"},
		TitleKey:      "name",
		TitleFallback: "(pozycja)",
		SubtitleKeys:  []string{"sku"},
	},
}

// BuiltIns returns the built-in partitions in display order.
func BuiltIns() []BuiltIn {
	out := make([]BuiltIn, len(builtIns))
	copy(out, builtIns)
	return out
}

// LookupBuiltIn returns the built-in partition with the given name.
func LookupBuiltIn(partition string) (BuiltIn, bool) {
	for _, b := range builtIns {
		if b.Partition == partition {
			return b, true
		}
	}
	return BuiltIn{}, false
}

// IsBuiltIn reports whether partition names a built-in partition.
func IsBuiltIn(partition string) bool {
	_, ok := LookupBuiltIn(partition)
	return ok
}
