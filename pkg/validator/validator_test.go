package validator

import "testing"

func TestValidateEmail(t *testing.T) {
	valid := []string{"anna@example.com", "a.b+c@mail.ru", "user_1@sub.domain.org"}
	for _, email := range valid {
		if !ValidateEmail(email) {
			t.Errorf("expected %q to be valid", email)
		}
	}

	invalid := []string{"", "plain", "a@b", "@example.com", "a b@example.com"}
	for _, email := range invalid {
		if ValidateEmail(email) {
			t.Errorf("expected %q to be invalid", email)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	if ValidatePassword("short12") {
		t.Error("7 characters must be rejected")
	}
	if !ValidatePassword("short123") {
		t.Error("8 characters must be accepted")
	}
	if !ValidatePassword("p@ssw0rd!long") {
		t.Error("special characters must be accepted")
	}
}

func TestValidatePhone(t *testing.T) {
	valid := []string{"+79991234567", "79991234567", "8 (999) 123-45-67"}
	for _, phone := range valid {
		if !ValidatePhone(phone) {
			t.Errorf("expected %q to be valid", phone)
		}
	}

	invalid := []string{"", "12345", "not-a-phone"}
	for _, phone := range invalid {
		if ValidatePhone(phone) {
			t.Errorf("expected %q to be invalid", phone)
		}
	}
}

func TestFormatPhone(t *testing.T) {
	cases := map[string]string{
		"8 (999) 123-45-67": "+79991234567",
		"79991234567":       "+79991234567",
		"+79991234567":      "+79991234567",
		"9991234567":        "+79991234567",
	}
	for in, want := range cases {
		if got := FormatPhone(in); got != want {
			t.Errorf("FormatPhone(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidateNamePart(t *testing.T) {
	valid := []string{"Анна", "Anna", "Анна-Мария", "O'Neil"}
	for _, name := range valid {
		if !ValidateNamePart(name) {
			t.Errorf("expected %q to be valid", name)
		}
	}

	invalid := []string{"", "А", "Иван42"}
	for _, name := range invalid {
		if ValidateNamePart(name) {
			t.Errorf("expected %q to be invalid", name)
		}
	}
}

func TestFormatName(t *testing.T) {
	cases := map[string]string{
		"анна":       "Анна",
		"АННА-МАРИЯ": "Анна-Мария",
		"иван петро": "Иван Петро",
	}
	for in, want := range cases {
		if got := FormatName(in); got != want {
			t.Errorf("FormatName(%q) = %q, want %q", in, got, want)
		}
	}
}
