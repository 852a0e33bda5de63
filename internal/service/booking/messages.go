package booking

import (
	"fmt"
	"strings"
)

// Messages holds the caller-facing string templates for one locale. The
// engines never build prose inline; everything a patient can read lives
// here so integrators can swap or extend locales without touching booking
// logic.
type Messages struct {
	slotAvailable       string
	slotUnavailable     string
	availabilityUnknown string
	daySlotsSummary     string
	dayNoSlots          string

	bookingConfirmed    string
	bookingFailed       string
	notificationsVia    string
	notificationsNone   string
	channelEmail        string
	channelSMS          string
	channelJoin         string

	cancelConfirmed string
	cancelAlready   string
	cancelFailed    string

	offlineLabel string

	confirmSubject string
	confirmEmail   string
	confirmSMS     string

	reminderSubject string
	reminderEmail   string
	reminderSMS     string
	reminderSent    string
	reminderFailed  string

	cancelSubject    string
	cancelEmail      string
	cancelSMS        string
	cancelReasonLine string
}

var locales = map[string]Messages{
	"fr": {
		slotAvailable:       "Parfait ! Le créneau du %s à %s est disponible.",
		slotUnavailable:     "Désolé, ce créneau n'est pas disponible. Il y a déjà %d rendez-vous à cette heure.",
		availabilityUnknown: "Impossible de vérifier les disponibilités pour le moment.",
		daySlotsSummary:     "Il y a %d créneaux disponibles le %s.",
		dayNoSlots:          "Aucun créneau disponible le %s.",

		bookingConfirmed:  "Parfait ! Votre rendez-vous est confirmé le %s à %s.",
		bookingFailed:     "Désolé, impossible de réserver ce rendez-vous. Veuillez réessayer.",
		notificationsVia:  "Confirmations envoyées par %s.",
		notificationsNone: "Rendez-vous créé (notifications à configurer).",
		channelEmail:      "email",
		channelSMS:        "SMS",
		channelJoin:       " et ",

		cancelConfirmed: "Votre rendez-vous a été annulé avec succès.",
		cancelAlready:   "Ce rendez-vous était déjà annulé.",
		cancelFailed:    "Impossible d'annuler ce rendez-vous. Veuillez contacter notre équipe.",

		offlineLabel: " (mode hors ligne)",

		confirmSubject: "Confirmation de rendez-vous - %s",
		confirmEmail: `Bonjour %s,

Votre rendez-vous a été confirmé avec succès !

Détails de votre rendez-vous :
- Date : %s
- Heure : %s
- Service : %s
- Durée : %d minutes
%s
Informations importantes :
- Veuillez arriver 15 minutes avant votre rendez-vous
- En cas d'empêchement, merci de nous prévenir 24h à l'avance

Cordialement,
L'équipe de %s`,
		confirmSMS: "%s : Bonjour %s ! Votre RDV est confirmé le %s à %s (%s, %d min). En cas d'empêchement, prévenez 24h à l'avance.",

		reminderSubject: "Rappel de rendez-vous - %s",
		reminderEmail: `Bonjour %s,

Nous vous rappelons votre rendez-vous :
- Date : %s
- Heure : %s
- Service : %s

N'oubliez pas d'arriver 15 minutes en avance.

À bientôt !
L'équipe de %s`,
		reminderSMS:    "%s : Rappel, votre RDV est le %s à %s. Arrivez 15 min en avance. À bientôt !",
		reminderSent:   "Rappel envoyé.",
		reminderFailed: "Impossible d'envoyer le rappel.",

		cancelSubject: "Annulation de rendez-vous - %s",
		cancelEmail: `Bonjour %s,

Votre rendez-vous du %s à %s a été annulé.
%s
Pour reprendre un nouveau rendez-vous, n'hésitez pas à nous contacter.

Cordialement,
L'équipe de %s`,
		cancelSMS:        "%s : votre RDV du %s à %s a été annulé. Contactez-nous pour un nouveau RDV.",
		cancelReasonLine: "Raison : %s\n",
	},
	"en": {
		slotAvailable:       "Great, the %s slot at %s is available.",
		slotUnavailable:     "Sorry, that slot is taken; there are already %d appointments at that time.",
		availabilityUnknown: "We cannot check availability right now.",
		daySlotsSummary:     "There are %d open slots on %s.",
		dayNoSlots:          "No open slots on %s.",

		bookingConfirmed:  "Your appointment is confirmed for %s at %s.",
		bookingFailed:     "Sorry, we could not book this appointment. Please try again.",
		notificationsVia:  "Confirmations sent by %s.",
		notificationsNone: "Appointment created (notifications not configured).",
		channelEmail:      "email",
		channelSMS:        "SMS",
		channelJoin:       " and ",

		cancelConfirmed: "Your appointment has been cancelled.",
		cancelAlready:   "This appointment was already cancelled.",
		cancelFailed:    "We could not cancel this appointment. Please contact our team.",

		offlineLabel: " (offline mode)",

		confirmSubject: "Appointment confirmation - %s",
		confirmEmail: `Hello %s,

Your appointment is confirmed.

Details:
- Date: %s
- Time: %s
- Service: %s
- Duration: %d minutes
%s
Please arrive 15 minutes early. If you cannot make it, let us know 24h in advance.

Best regards,
The %s team`,
		confirmSMS: "%s: Hello %s, your appointment is confirmed for %s at %s (%s, %d min). If you cannot make it, tell us 24h ahead.",

		reminderSubject: "Appointment reminder - %s",
		reminderEmail: `Hello %s,

A reminder for your appointment:
- Date: %s
- Time: %s
- Service: %s

Please arrive 15 minutes early.

See you soon,
The %s team`,
		reminderSMS:    "%s: reminder, your appointment is on %s at %s. Please arrive 15 min early.",
		reminderSent:   "Reminder sent.",
		reminderFailed: "Could not send the reminder.",

		cancelSubject: "Appointment cancelled - %s",
		cancelEmail: `Hello %s,

Your appointment on %s at %s has been cancelled.
%s
Feel free to contact us to book a new one.

Best regards,
The %s team`,
		cancelSMS:        "%s: your appointment on %s at %s has been cancelled. Contact us to rebook.",
		cancelReasonLine: "Reason: %s\n",
	},
}

// MessagesFor resolves the template table for a locale, falling back to
// French, the original deployment's language.
func MessagesFor(locale string) Messages {
	if m, ok := locales[strings.ToLower(strings.TrimSpace(locale))]; ok {
		return m
	}
	return locales["fr"]
}

func (m Messages) SlotAvailable(date, timeOfDay string) string {
	return fmt.Sprintf(m.slotAvailable, date, timeOfDay)
}

func (m Messages) SlotUnavailable(conflicts int) string {
	return fmt.Sprintf(m.slotUnavailable, conflicts)
}

func (m Messages) AvailabilityUnknown() string {
	return m.availabilityUnknown
}

func (m Messages) DaySlots(date string, count int) string {
	if count == 0 {
		return fmt.Sprintf(m.dayNoSlots, date)
	}
	return fmt.Sprintf(m.daySlotsSummary, count, date)
}

func (m Messages) BookingConfirmed(date, timeOfDay string) string {
	return fmt.Sprintf(m.bookingConfirmed, date, timeOfDay)
}

func (m Messages) BookingFailed() string {
	return m.bookingFailed
}

// NotificationSummary names the channels that were delivered, or the
// configure-me fallback when none went through.
func (m Messages) NotificationSummary(emailOK, smsOK bool) string {
	var sent []string
	if emailOK {
		sent = append(sent, m.channelEmail)
	}
	if smsOK {
		sent = append(sent, m.channelSMS)
	}
	if len(sent) == 0 {
		return m.notificationsNone
	}
	return fmt.Sprintf(m.notificationsVia, strings.Join(sent, m.channelJoin))
}

func (m Messages) CancelConfirmed() string { return m.cancelConfirmed }
func (m Messages) CancelAlready() string   { return m.cancelAlready }
func (m Messages) CancelFailed() string    { return m.cancelFailed }
func (m Messages) OfflineLabel() string    { return m.offlineLabel }

func (m Messages) ConfirmSubject(businessName string) string {
	return fmt.Sprintf(m.confirmSubject, businessName)
}

func (m Messages) ConfirmEmailBody(name, date, timeOfDay, service string, durationMinutes int, notes, businessName string) string {
	notesLine := ""
	if notes != "" {
		notesLine = "- Notes : " + notes + "\n"
	}
	return fmt.Sprintf(m.confirmEmail, name, date, timeOfDay, service, durationMinutes, notesLine, businessName)
}

func (m Messages) ConfirmSMSBody(businessName, name, date, timeOfDay, service string, durationMinutes int) string {
	return fmt.Sprintf(m.confirmSMS, businessName, name, date, timeOfDay, service, durationMinutes)
}

func (m Messages) ReminderSubject(businessName string) string {
	return fmt.Sprintf(m.reminderSubject, businessName)
}

func (m Messages) ReminderEmailBody(name, date, timeOfDay, service, businessName string) string {
	return fmt.Sprintf(m.reminderEmail, name, date, timeOfDay, service, businessName)
}

func (m Messages) ReminderSMSBody(businessName, date, timeOfDay string) string {
	return fmt.Sprintf(m.reminderSMS, businessName, date, timeOfDay)
}

func (m Messages) ReminderSent() string   { return m.reminderSent }
func (m Messages) ReminderFailed() string { return m.reminderFailed }

func (m Messages) CancelSubject(businessName string) string {
	return fmt.Sprintf(m.cancelSubject, businessName)
}

func (m Messages) CancelEmailBody(name, date, timeOfDay, reason, businessName string) string {
	reasonLine := ""
	if reason != "" {
		reasonLine = fmt.Sprintf(m.cancelReasonLine, reason)
	}
	return fmt.Sprintf(m.cancelEmail, name, date, timeOfDay, reasonLine, businessName)
}

func (m Messages) CancelSMSBody(businessName, date, timeOfDay string) string {
	return fmt.Sprintf(m.cancelSMS, businessName, date, timeOfDay)
}
