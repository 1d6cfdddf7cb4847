package tac

import "salarizare/internal/domain/formula"

type sampleTransaction struct {
	DocID       string
	Description string
	ValFaraTVA  float64
	ValTVA      float64
	ValTotala   float64
	ValDed      float64
	ValNeded    float64
	TVADed      float64
	TACName     string
}

func (s sampleTransaction) variables() formula.Vars {
	return formula.Vars{
		"Doc_ID":         s.DocID,
		"T_Descriere_L1": s.Description,
		"T_Val_fara_TVA": s.ValFaraTVA,
		"T_Val_TVA":      s.ValTVA,
		"T_Val_Totala":   s.ValTotala,
		"T_Val_Valuta":   nil,
		"Val_ded":        s.ValDed,
		"Val_neded":      s.ValNeded,
		"TVA_ded":        s.TVADed,
		"ID_Tranzactie":  s.TACName,
		"T.Val_Valuta":   nil,
		"T.Moneda":       nil,
	}
}

var sampleTransactions = []sampleTransaction{
	{"1122334-0000001", "Servicii actualizare site web sept.2025", 1200, 0, 1200, 1200, 0, 0, "B1_704"},
	{"1122334-0000002", "Incasare factura ROZ SRL", 1200, 0, 1200, 1200, 0, 0, "B1_4111"},
	{"1122334-0000003", "Comisioane bancare", 5.5, 0, 5.5, 5.5, 0, 0, "B1_627"},
	{"1122334-0000004", "Avans prestare servicii cf contract 444", 4000, 0, 4000, 4000, 0, 0, "B1_419"},
	{"1122334-0000005", "Incasare factura VULCAN SRL", 4000, 0, 4000, 4000, 0, 0, "B1_4111"},
	{"1122334-0000006", "Asigurare auto RCA", 880, 0, 880, 440, 440, 0, "B1_613"},
	{"1122334-0000007", "Parcare", 20, 4.2, 24.2, 24.2, 0, 0, "B1_625"},
	{"1122334-0000008", "Energie electrica", 400, 84, 484, 484, 0, 0, "B1_6051"},
	{"1122334-0000009", "Combustibil", 320.65, 67.34, 387.99, 193.99, 193.99, 0, "B1_6022"},
	{"1122334-0000010", "Plata utilitati", 484, 0, 484, 484, 0, 0, "B1_401"},
}
