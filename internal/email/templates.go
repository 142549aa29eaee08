package email

import "fmt"

// BuildBookingRequestedBody builds the HTML body sent to the vendor
// when a booking request arrives.
func BuildBookingRequestedBody(bookingID, total string) string {
	content := fmt.Sprintf(`<p style="margin-top: 0;">Você recebeu um novo pedido de reserva no valor de <strong>R$ %s</strong>.</p>
		<p>Acesse o painel da sua loja para aprovar ou recusar o pedido.</p>`, total)
	return wrapBody("Nova reserva recebida", bookingID, content)
}

// BuildBookingApprovedBody builds the HTML body sent to the customer
// with the payment link.
func BuildBookingApprovedBody(bookingID, total, checkoutURL string) string {
	content := fmt.Sprintf(`<p style="margin-top: 0;">Sua reserva foi aprovada pelo fornecedor.</p>
		<p>Para confirmar, efetue o pagamento de <strong>R$ %s</strong>:</p>
		<p style="text-align: center; margin: 30px 0;">
			<a href="%s" style="background: #667eea; color: white; padding: 14px 28px; border-radius: 5px; text-decoration: none; font-weight: bold;">Pagar agora</a>
		</p>
		<p style="font-size: 14px; color: #666;">A reserva só é garantida após a confirmação do pagamento.</p>`, total, checkoutURL)
	return wrapBody("Reserva aprovada", bookingID, content)
}

// BuildBookingRejectedBody builds the HTML body sent to the customer
// when the vendor declines.
func BuildBookingRejectedBody(bookingID, reason string) string {
	content := `<p style="margin-top: 0;">Infelizmente o fornecedor não pôde atender sua reserva.</p>`
	if reason != "" {
		content += fmt.Sprintf(`<div style="background: #f8f9fa; padding: 15px; border-radius: 5px; margin: 20px 0;">
			<p style="margin: 0; font-size: 14px; color: #666;">Motivo</p>
			<p style="margin: 5px 0 0 0;">%s</p>
		</div>`, reason)
	}
	content += `<p>Nenhum valor foi cobrado.</p>`
	return wrapBody("Reserva recusada", bookingID, content)
}

// BuildBookingPaidBody builds the HTML body confirming payment.
func BuildBookingPaidBody(bookingID string) string {
	content := `<p style="margin-top: 0;">Recebemos seu pagamento e sua reserva está confirmada.</p>
		<p>O fornecedor foi avisado e os itens estão garantidos para as datas escolhidas.</p>`
	return wrapBody("Pagamento confirmado", bookingID, content)
}

func wrapBody(title, bookingID, content string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<div style="background: linear-gradient(135deg, #667eea 0%%, #764ba2 100%%); padding: 30px; border-radius: 10px 10px 0 0;">
		<h1 style="color: white; margin: 0; font-size: 24px;">%s</h1>
	</div>

	<div style="background: #fff; padding: 30px; border: 1px solid #eee; border-top: none; border-radius: 0 0 10px 10px;">
		<div style="background: #f8f9fa; padding: 15px; border-radius: 5px; margin: 0 0 20px 0;">
			<p style="margin: 0; font-size: 14px; color: #666;">Número da reserva</p>
			<p style="margin: 5px 0 0 0; font-size: 18px; font-weight: bold; font-family: monospace;">%s</p>
		</div>

		%s

		<hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">

		<p style="font-size: 12px; color: #999; margin-bottom: 0;">
			Este e-mail foi enviado automaticamente. Em caso de dúvidas, entre em contato com o suporte.
		</p>
	</div>
</body>
</html>`, title, bookingID, content)
}
