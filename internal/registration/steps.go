package registration

import "strings"

type Step int

const (
	StepAwaitingName Step = iota
	StepAwaitingPhone
	StepAwaitingRegion
	StepAwaitingDirection
	StepAwaitingBranch
	StepComplete
	StepCancelled
)

func (s Step) String() string {
	switch s {
	case StepAwaitingName:
		return "awaiting_name"
	case StepAwaitingPhone:
		return "awaiting_phone"
	case StepAwaitingRegion:
		return "awaiting_region"
	case StepAwaitingDirection:
		return "awaiting_direction"
	case StepAwaitingBranch:
		return "awaiting_branch"
	case StepComplete:
		return "complete"
	case StepCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Active reports whether the step still expects user input.
func (s Step) Active() bool {
	return s >= StepAwaitingName && s <= StepAwaitingBranch
}

type Field string

const (
	FieldName      Field = "fio"
	FieldPhone     Field = "phone"
	FieldRegion    Field = "region"
	FieldDirection Field = "direction"
	FieldBranch    Field = "branch"
)

const (
	PromptName      = "Ismingizni va familiyangizni kiriting:"
	PromptPhone     = "Quyidagi tugmani bosib telefon raqamingizni yuboring:"
	PromptRegion    = "Qaysi viloyatda yashaysiz?"
	PromptDirection = "Topshirmoqchi bo'lgan yo'nalishingizni tanlang:"
	PromptBranch    = "Qaysi filialda kirish imtihonlarini topshirmoqchisiz?"

	RepromptName    = "Iltimos, ismingizni va familiyangizni kiriting."
	RepromptPhone   = "Iltimos, tugmani bosib telefon raqamingizni yuboring."
	RepromptForeign = "Iltimos, o'zingizning telefon raqamingizni yuboring."
	RepromptChoice  = "Iltimos, quyidagi variantlardan birini tanlang."

	ContactButton = "📱 Telefon raqamni yuborish"

	MessageCompleted = "Ma’lumotlaringiz muvaffaqiyatli qabul qilindi.\n" +
		"Mutaxassisimiz tez orada siz bilan bog’lanadi."
	MessageCancelled        = "Jarayon bekor qilindi."
	MessageNoActiveSession  = "Ro'yxatdan o'tishni boshlash uchun /start buyrug'ini yuboring."
	MessagePersistenceRetry = "Ma'lumotlarni saqlashda xatolik yuz berdi. Iltimos, filialni qayta tanlang."
	MessageTemporaryFailure = "Xatolik yuz berdi. Iltimos, birozdan so'ng qayta urinib ko'ring."
)

var Regions = [][]string{
	{"Toshkent shahar", "Toshkent viloyati", "Andijon", "Namangan"},
	{"Fargʻona", "Buxoro", "Samarqand"},
	{"Qashqadaryo", "Surxondaryo", "Jizzax"},
	{"Navoiy", "Sirdaryo", "Xorazm"},
	{"Qoraqalpogʻiston"},
}

var Directions = [][]string{
	{"Davolash ishi"},
	{"Stomatologiya"},
	{"Pediatriya"},
}

var Branches = [][]string{
	{"Chirchiq"},
	{"Namangan"},
	{"Andijon"},
}

// validator returns the value to store, or a non-empty re-prompt when the input is rejected.
type validator func(m *Machine, in Input) (value string, reprompt string)

type stepSpec struct {
	field          Field
	prompt         string
	options        [][]string
	requestContact bool
	validate       validator
	next           Step
}

// transitions is the complete table of legal forward moves. Steps absent from it are terminal.
var transitions = map[Step]stepSpec{
	StepAwaitingName: {
		field:    FieldName,
		prompt:   PromptName,
		validate: validateName,
		next:     StepAwaitingPhone,
	},
	StepAwaitingPhone: {
		field:          FieldPhone,
		prompt:         PromptPhone,
		requestContact: true,
		validate:       validatePhone,
		next:           StepAwaitingRegion,
	},
	StepAwaitingRegion: {
		field:    FieldRegion,
		prompt:   PromptRegion,
		options:  Regions,
		validate: choiceValidator(Regions),
		next:     StepAwaitingDirection,
	},
	StepAwaitingDirection: {
		field:    FieldDirection,
		prompt:   PromptDirection,
		options:  Directions,
		validate: choiceValidator(Directions),
		next:     StepAwaitingBranch,
	},
	StepAwaitingBranch: {
		field:    FieldBranch,
		prompt:   PromptBranch,
		options:  Branches,
		validate: choiceValidator(Branches),
		next:     StepComplete,
	},
}

// orderedFields lists fields in record order.
var orderedFields = []Field{FieldName, FieldPhone, FieldRegion, FieldDirection, FieldBranch}

// fieldsBefore returns the fields that must already be collected when a session sits at step.
func fieldsBefore(step Step) []Field {
	n := int(step)
	if n > len(orderedFields) {
		n = len(orderedFields)
	}
	if n < 0 {
		n = 0
	}
	return orderedFields[:n]
}

func promptFor(step Step) Reply {
	spec, ok := transitions[step]
	if !ok {
		return Reply{}
	}
	return Reply{
		Text:           spec.prompt,
		Options:        spec.options,
		RequestContact: spec.requestContact,
		Step:           step,
	}
}

func validateName(_ *Machine, in Input) (string, string) {
	name := strings.Join(strings.Fields(in.Text), " ")
	if name == "" {
		return "", RepromptName
	}
	return name, ""
}

func validatePhone(_ *Machine, in Input) (string, string) {
	if in.Contact == nil || strings.TrimSpace(in.Contact.PhoneNumber) == "" {
		return "", RepromptPhone
	}
	if in.Contact.UserID != 0 && in.SenderID != 0 && in.Contact.UserID != in.SenderID {
		return "", RepromptForeign
	}
	return NormalizePhone(in.Contact.PhoneNumber), ""
}

func choiceValidator(options [][]string) validator {
	return func(m *Machine, in Input) (string, string) {
		text := strings.TrimSpace(in.Text)
		if text == "" {
			return "", RepromptChoice
		}
		if !m.strictChoices {
			return text, ""
		}
		for _, row := range options {
			for _, option := range row {
				if strings.EqualFold(option, text) {
					return option, ""
				}
			}
		}
		return "", RepromptChoice
	}
}

// NormalizePhone keeps the contact's digits and guarantees a leading plus.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return strings.TrimSpace(raw)
	}
	return "+" + digits
}
